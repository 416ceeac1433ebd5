package main

import "github.com/ad1ttya/pollbar/cmd"

func main() {
	cmd.Execute()
}

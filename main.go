package main

import "github.com/user/foodlog/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/dortania-tools/metallib-helper/cmd/metallib-helper/cmd"

func main() {
	cmd.Execute()
}

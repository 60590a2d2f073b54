package main

import "github.com/personafin/personafin/cmd"

func main() {
	cmd.Execute()
}

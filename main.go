package main

import "github.com/KaramelBytes/flowplot-cli/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/KaramelBytes/energy-insights/cmd"

func main() {
	cmd.Execute()
}

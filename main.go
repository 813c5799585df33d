package main

import "github.com/vintro/wineresolver/cmd"

func main() {
	cmd.Execute()
}

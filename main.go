package main

import (
	"fmt"
	"os"

	"github.com/zeu5/gymkit/commands"
)

func main() {
	rootCommand := commands.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

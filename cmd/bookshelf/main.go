// Package main provides the bookshelf maintenance command.
package main

import "github.com/bookshelfapp/bookshelf-server/internal/cli"

func main() {
	cli.Execute()
}

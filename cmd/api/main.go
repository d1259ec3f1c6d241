package main

import "github.com/akolanti/pdfqa/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/abhishekanand16/PhotoSense-AI/cmd/photosense-supervisor/cmd"

func main() {
	cmd.Execute()
}

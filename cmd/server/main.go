package main

import "github.com/nguyentranbao-ct/listing-proxy/cmd"

func main() {
	cmd.Execute()
}

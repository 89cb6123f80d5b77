// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/comfyrestore/cmd/comfyrestore/cmd"
)

func main() {
	cmd.Execute()
}

// SPDX-License-Identifier: MPL-2.0

package main

import cmd "dkr-cli/cmd/dkr"

func main() {
	cmd.Execute()
}

/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package main

import "github.com/hk-bmi/ontoemma/cmd"

func main() {
	cmd.Execute()
}

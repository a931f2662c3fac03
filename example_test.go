// example_test.go: Usage examples
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil_test

import (
	"fmt"
	"os"

	"github.com/agilira/vexil"
)

type ServiceConfig struct {
	vexil.PostConstruct `hooks:"Describe"`

	Name    string `flag:"service-name" description:"Service name" required:"true"`
	Port    int    `flag:"port" description:"Listen port"`
	Verbose bool   `flag:"verbose" description:"Verbose logging"`
}

func (c *ServiceConfig) Describe() {
	fmt.Printf("%s listening on %d (verbose=%v)\n", c.Name, c.Port, c.Verbose)
}

func Example() {
	cfg := &ServiceConfig{Port: 8080}

	flags := vexil.New(vexil.Config{Version: "1.4.0"})
	if err := flags.RegisterInstance(cfg); err != nil {
		fmt.Println(err)
		return
	}

	if err := flags.Parse([]string{"--service-name", "orders", "--verbose"}); err != nil {
		fmt.Println(err)
		return
	}
	// Output: orders listening on 8080 (verbose=true)
}

func ExampleFlags_PrintVersion() {
	flags := vexil.New(vexil.Config{Version: "1.4.0"})
	if err := flags.Parse([]string{"--version"}); err != nil {
		fmt.Println(err)
		return
	}
	if flags.VersionRequested() {
		_ = flags.PrintVersion(os.Stdout)
	}
	// Output: 1.4.0
}

func ExampleNewClass() {
	var (
		host = "localhost"
		mode = "fast"
	)

	flags := vexil.New(vexil.Config{})
	err := flags.RegisterClass(vexil.NewClass("server").
		String(&host, "host", "Bind address").
		Enum(&mode, "mode", "Write mode", vexil.OneOf("fast", "safe")))
	if err != nil {
		fmt.Println(err)
		return
	}

	if err := flags.Parse([]string{"--host=0.0.0.0", "--mode", "safe", "input.csv"}); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(host, mode, flags.NonOptionArgs())
	// Output: 0.0.0.0 safe [input.csv]
}

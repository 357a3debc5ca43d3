// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/xtaci/linechatd/internal/chatserver"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		// Enable timestamps + file:line to simplify debugging self-built binaries.
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "linechatd"
	myApp.Usage = "single-threaded, non-blocking line chat server"
	myApp.Version = VERSION
	myApp.ArgsUsage = "<port>"
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "to suppress the per-connection accept/close messages",
		},
		cli.StringFlag{
			Name:  "c",
			Value: "", // when set, the JSON file must exist on disk
			Usage: "config from json file, which will override the command from shell",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		if c.NArg() != 1 {
			cli.ShowAppHelp(c)
			return cli.NewExitError("exactly one positional argument, <port>, is required", 1)
		}

		port, err := strconv.Atoi(c.Args().First())
		if err != nil || port < 1 || port > 65535 {
			cli.ShowAppHelp(c)
			return cli.NewExitError(fmt.Sprintf("invalid port %q: must be a decimal number in 1..=65535", c.Args().First()), 1)
		}

		config := Config{Port: port}
		config.Log = c.String("log")
		config.Quiet = c.Bool("quiet")

		if c.String("c") != "" {
			// Only JSON configuration files are supported at the moment.
			if err := parseJSONConfig(&config, c.String("c")); err != nil {
				return cli.NewExitError(err.Error(), 1)
			}
		}

		// Redirect logs when the user supplied a dedicated log file.
		if config.Log != "" {
			f, err := os.OpenFile(config.Log, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
			if err != nil {
				return cli.NewExitError(err.Error(), 1)
			}
			defer f.Close()
			log.SetOutput(f)
		}

		log.Println("version:", VERSION)
		log.Println("port:", config.Port)
		log.Println("quiet:", config.Quiet)

		srv, err := chatserver.New(chatserver.Config{
			Port:   config.Port,
			Quiet:  config.Quiet,
			Logger: log.Default(),
		})
		if err != nil {
			color.Red("fatal: %+v", err)
			return cli.NewExitError(err.Error(), 1)
		}
		defer srv.Close()

		if err := srv.Run(); err != nil {
			color.Red("fatal: %+v", err)
			return cli.NewExitError(err.Error(), 1)
		}
		return nil
	}
	myApp.Run(os.Args)
}

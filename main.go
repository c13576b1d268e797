/*
 * EVM - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"evm/assemble"
	"evm/disassemble"
	"evm/stepper"
	"evm/syscalls"
	"evm/util/logger"
	"evm/vm"
)

var Logger *slog.Logger

func main() {
	optAssemble := getopt.BoolLong("assemble", 'a', "Assemble source instead of running an image")
	optDisassemble := getopt.BoolLong("disassemble", 'd', "Disassemble an image instead of running it")
	optInteractive := getopt.BoolLong("interactive", 'i', "Step through the program interactively")
	optOutput := getopt.StringLong("output", 'o', "", "Output file for -a (defaults to stdout)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp || getopt.NArgs() < 1 {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if *optLogFile != "" {
		logFile, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	Logger = slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel, AddSource: false}, new(bool)))
	slog.SetDefault(Logger)

	path := getopt.Arg(0)
	raw, err := os.ReadFile(path)
	if err != nil {
		Logger.Error("reading input: " + err.Error())
		os.Exit(1)
	}

	switch {
	case *optAssemble:
		runAssemble(string(raw), *optOutput)
	case *optDisassemble:
		runDisassemble(raw)
	default:
		runProgram(raw, *optInteractive)
	}
}

func runAssemble(src string, outPath string) {
	img, err := assemble.Assemble(src)
	if err != nil {
		Logger.Error("assembling: " + err.Error())
		os.Exit(1)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			Logger.Error("creating output: " + err.Error())
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if _, err := out.Write(img.Encode()); err != nil {
		Logger.Error("writing image: " + err.Error())
		os.Exit(1)
	}
}

func runDisassemble(raw []byte) {
	words, err := vm.Decode(raw)
	if err != nil {
		Logger.Error("decoding image: " + err.Error())
		os.Exit(1)
	}
	img, err := vm.Load(words)
	if err != nil {
		Logger.Error("loading image: " + err.Error())
		os.Exit(1)
	}
	listing, err := disassemble.Listing(img, -1)
	os.Stdout.WriteString(listing)
	if err != nil {
		Logger.Error("disassembling: " + err.Error())
		os.Exit(1)
	}
}

func runProgram(raw []byte, interactive bool) {
	words, err := vm.Decode(raw)
	if err != nil {
		Logger.Error("decoding image: " + err.Error())
		os.Exit(1)
	}
	img, err := vm.Load(words)
	if err != nil {
		Logger.Error("loading image: " + err.Error())
		os.Exit(1)
	}

	console := syscalls.NewConsole(os.Stdin, os.Stdout)
	opts := vm.Options{Hook: console.Hook, Stdout: os.Stdout}

	if interactive {
		if status := stepper.Run(img, opts, os.Stdout); status.Err != nil {
			Logger.Error("fault: " + status.Err.Error())
			os.Exit(1)
		}
		return
	}

	status := vm.Run(img, opts)
	if status.Err != nil {
		Logger.Error("fault: " + status.Err.Error())
		os.Exit(1)
	}
}

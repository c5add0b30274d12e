//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package main

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"jdwpcheck/pkg/scenario"
)

// consoleReporter prints complaints as they happen and, when verbose,
// every progress line.
type consoleReporter struct {
	w       io.Writer
	verbose bool
}

func (r *consoleReporter) Display(msg string) {
	if r.verbose {
		pterm.Info.WithWriter(r.w).Println(msg)
	}
}

func (r *consoleReporter) Complain(c scenario.Complaint) {
	pterm.Warning.WithWriter(r.w).Println(c.String())
}

func renderResult(w io.Writer, result *scenario.Result) {
	pterm.DefaultSection.WithWriter(w).Println("Result")

	if len(result.Complaints) > 0 {
		data := pterm.TableData{{"Field", "Observed", "Expected", "Message"}}
		for _, c := range result.Complaints {
			expected := ""
			if c.Expected != nil {
				expected = fmt.Sprint(c.Expected)
			}
			data = append(data, []string{c.Field, fmt.Sprint(c.Observed), expected, c.Message})
		}
		pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
	}
	if result.Failure != nil {
		pterm.Error.WithWriter(w).Printfln("aborted: %s", result.Failure)
	}

	pterm.DefaultTable.WithWriter(w).WithData(pterm.TableData{
		{"run", result.RunID},
		{"final state", result.FinalState.String()},
		{"exit status", fmt.Sprint(result.ExitStatus)},
		{"complaints", fmt.Sprint(len(result.Complaints))},
		{"elapsed", result.Elapsed.String()},
	}).Render()

	if result.Success {
		pterm.Success.WithWriter(w).Println("TEST PASSED")
	} else {
		pterm.Error.WithWriter(w).Println("TEST FAILED")
	}
}

func renderAttachFailure(w io.Writer, target string, err error) {
	pterm.Error.WithWriter(w).Printfln("unable to attach to %s: %s", target, err)
	pterm.Error.WithWriter(w).Println("TEST FAILED")
}

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

package util

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

func ToPrintableString(b []byte) string {
	sz := len(b)
	if sz == 0 {
		return ""
	}
	buf := make([]byte, sz)
	for i := 0; i < sz; i++ {
		if b[i] < 32 || b[i] > 126 {
			buf[i] = '.'
		} else {
			buf[i] = b[i]
		}
	}
	return string(buf)
}

func ToHexString(data []byte) string {
	return fmt.Sprintf("%X", data)
}

// HexDump writes data as offset, 16 hex bytes per row and a printable column.
func HexDump(w io.Writer, data []byte) {
	fmt.Fprintf(w, "   %9X  ", 0)
	for i := 1; i < 16; i++ {
		fmt.Fprintf(w, "%X  ", i)
	}
	for i := 0; i < 16; i++ {
		fmt.Fprintf(w, "%X", i)
	}
	fmt.Fprint(w, "\n")

	szData := len(data)
	for start := 0; start < szData; start += 16 {
		end := start + 16
		if end > szData {
			end = szData
		}
		fmt.Fprintf(w, "%09X ", start)
		for j := start; j < end; j++ {
			fmt.Fprintf(w, "%02X ", data[j])
		}
		for j := (end - 1) % 16; j < 15; j++ {
			fmt.Fprint(w, "   ")
		}

		fmt.Fprint(w, " ")
		for j := start; j < end; j++ {
			v := data[j]
			if unicode.IsPrint(rune(v)) && v < 0x80 {
				fmt.Fprintf(w, "%c", v)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprint(w, "\n")
	}
}

func HexDumpString(data []byte) string {
	var sb strings.Builder
	HexDump(&sb, data)
	return sb.String()
}

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

/*
Package proto implements the JDWP wire format.

Packet

Every packet starts with an 11 byte header, big-endian:

	  0                   1                   2                   3
	  0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	 +-------+-------+-------+-------+-------+-------+-------+-------+
	0|                            length                             |
	 +-------+-------+-------+-------+-------+-------+-------+-------+
	4|                              id                               |
	 +-------+-------+-------+-------+-------+-------+-------+-------+
	8|     flags     |  cmd set      |  command      |
	 +-------+-------+-------+-------+-------+-------+
	                 |          error code           |   (reply, flags 0x80)
	                 +-------+-------+-------+-------+

length counts the header too. A command carries its command set and command
in bytes 9 and 10; a reply carries a 16 bit error code in the same bytes.

Identifiers

Object, reference type, method, field and frame identifiers have widths the
target VM reports through VirtualMachine.IDSizes. Readers and Writers are
bound to an IDSizes table and refuse to move identifiers until the table is
known.

Bounds

No Reader operation panics on short input. Every read that does not fit in
the remaining bytes fails with a *BoundError, which matches ErrOutOfBounds
under errors.Is.
*/
package proto

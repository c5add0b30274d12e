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

package proto

import (
	"encoding/binary"
	"fmt"
)

type (
	EventKind     uint8
	SuspendPolicy uint8
	TypeTag       uint8
	Tag           uint8
	ModKind       uint8
	ErrorCode     uint16

	// Command is a command set and command pair.
	Command struct {
		Set uint8
		Cmd uint8
	}
)

const (
	HeaderSize = 11

	FlagReply uint8 = 0x80

	// DefaultMaxPacketSize bounds the length field accepted from a peer.
	DefaultMaxPacketSize uint32 = 16 * 1024 * 1024

	Handshake = "JDWP-Handshake"
)

var (
	EncByteOrder = binary.BigEndian
)

var (
	CmdVMVersion            = Command{1, 1}
	CmdVMClassesBySignature = Command{1, 2}
	CmdVMAllClasses         = Command{1, 3}
	CmdVMDispose            = Command{1, 6}
	CmdVMIDSizes            = Command{1, 7}
	CmdVMSuspend            = Command{1, 8}
	CmdVMResume             = Command{1, 9}
	CmdVMExit               = Command{1, 10}

	CmdRefTypeSignature = Command{2, 1}
	CmdRefTypeFields    = Command{2, 4}
	CmdRefTypeMethods   = Command{2, 5}
	CmdRefTypeGetValues = Command{2, 6}

	CmdMethodLineTable = Command{6, 1}

	CmdEventRequestSet   = Command{15, 1}
	CmdEventRequestClear = Command{15, 2}

	CmdEventComposite = Command{64, 100}
)

var commandNameMap = map[Command]string{
	CmdVMVersion:            "VirtualMachine.Version",
	CmdVMClassesBySignature: "VirtualMachine.ClassesBySignature",
	CmdVMAllClasses:         "VirtualMachine.AllClasses",
	CmdVMDispose:            "VirtualMachine.Dispose",
	CmdVMIDSizes:            "VirtualMachine.IDSizes",
	CmdVMSuspend:            "VirtualMachine.Suspend",
	CmdVMResume:             "VirtualMachine.Resume",
	CmdVMExit:               "VirtualMachine.Exit",
	CmdRefTypeSignature:     "ReferenceType.Signature",
	CmdRefTypeFields:        "ReferenceType.Fields",
	CmdRefTypeMethods:       "ReferenceType.Methods",
	CmdRefTypeGetValues:     "ReferenceType.GetValues",
	CmdMethodLineTable:      "Method.LineTable",
	CmdEventRequestSet:      "EventRequest.Set",
	CmdEventRequestClear:    "EventRequest.Clear",
	CmdEventComposite:       "Event.Composite",
}

func (c Command) String() string {
	if name, ok := commandNameMap[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d,%d)", c.Set, c.Cmd)
}

const (
	EventSingleStep        = EventKind(1)
	EventBreakpoint        = EventKind(2)
	EventFramePop          = EventKind(3)
	EventException         = EventKind(4)
	EventUserDefined       = EventKind(5)
	EventThreadStart       = EventKind(6)
	EventThreadDeath       = EventKind(7)
	EventClassPrepare      = EventKind(8)
	EventClassUnload       = EventKind(9)
	EventClassLoad         = EventKind(10)
	EventFieldAccess       = EventKind(20)
	EventFieldModification = EventKind(21)
	EventExceptionCatch    = EventKind(30)
	EventMethodEntry       = EventKind(40)
	EventMethodExit        = EventKind(41)
	EventVMStart           = EventKind(90)
	EventVMDeath           = EventKind(99)
	EventVMDisconnected    = EventKind(100)
	EventVMInit            = EventVMStart
	EventThreadEnd         = EventThreadDeath
)

var eventKindNameMap = map[EventKind]string{
	EventSingleStep:        "SINGLE_STEP",
	EventBreakpoint:        "BREAKPOINT",
	EventFramePop:          "FRAME_POP",
	EventException:         "EXCEPTION",
	EventUserDefined:       "USER_DEFINED",
	EventThreadStart:       "THREAD_START",
	EventThreadDeath:       "THREAD_DEATH",
	EventClassPrepare:      "CLASS_PREPARE",
	EventClassUnload:       "CLASS_UNLOAD",
	EventClassLoad:         "CLASS_LOAD",
	EventFieldAccess:       "FIELD_ACCESS",
	EventFieldModification: "FIELD_MODIFICATION",
	EventExceptionCatch:    "EXCEPTION_CATCH",
	EventMethodEntry:       "METHOD_ENTRY",
	EventMethodExit:        "METHOD_EXIT",
	EventVMStart:           "VM_START",
	EventVMDeath:           "VM_DEATH",
	EventVMDisconnected:    "VM_DISCONNECTED",
}

func (k EventKind) String() string {
	if name, ok := eventKindNameMap[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

const (
	SuspendNone        = SuspendPolicy(0)
	SuspendEventThread = SuspendPolicy(1)
	SuspendAll         = SuspendPolicy(2)
)

func (p SuspendPolicy) String() string {
	switch p {
	case SuspendNone:
		return "NONE"
	case SuspendEventThread:
		return "EVENT_THREAD"
	case SuspendAll:
		return "ALL"
	}
	return fmt.Sprintf("SuspendPolicy(%d)", uint8(p))
}

const (
	TypeTagClass     = TypeTag(1)
	TypeTagInterface = TypeTag(2)
	TypeTagArray     = TypeTag(3)
)

func (t TypeTag) String() string {
	switch t {
	case TypeTagClass:
		return "CLASS"
	case TypeTagInterface:
		return "INTERFACE"
	case TypeTagArray:
		return "ARRAY"
	}
	return fmt.Sprintf("TypeTag(%d)", uint8(t))
}

const (
	TagArray       = Tag('[')
	TagByte        = Tag('B')
	TagChar        = Tag('C')
	TagObject      = Tag('L')
	TagFloat       = Tag('F')
	TagDouble      = Tag('D')
	TagInt         = Tag('I')
	TagLong        = Tag('J')
	TagShort       = Tag('S')
	TagVoid        = Tag('V')
	TagBoolean     = Tag('Z')
	TagString      = Tag('s')
	TagThread      = Tag('t')
	TagThreadGroup = Tag('g')
	TagClassLoader = Tag('l')
	TagClassObject = Tag('c')
)

// IsObject reports whether a value with this tag carries an object ID.
func (t Tag) IsObject() bool {
	switch t {
	case TagArray, TagObject, TagString, TagThread, TagThreadGroup, TagClassLoader, TagClassObject:
		return true
	}
	return false
}

func (t Tag) String() string {
	if t >= 0x20 && t < 0x7f {
		return fmt.Sprintf("'%c'(%d)", rune(t), uint8(t))
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

const (
	ModCount           = ModKind(1)
	ModConditional     = ModKind(2)
	ModThreadOnly      = ModKind(3)
	ModClassOnly       = ModKind(4)
	ModClassMatch      = ModKind(5)
	ModClassExclude    = ModKind(6)
	ModLocationOnly    = ModKind(7)
	ModExceptionOnly   = ModKind(8)
	ModFieldOnly       = ModKind(9)
	ModStep            = ModKind(10)
	ModInstanceOnly    = ModKind(11)
	ModSourceNameMatch = ModKind(12)
)

// Class status bits reported in CLASS_PREPARE and AllClasses.
const (
	ClassStatusVerified    int32 = 1
	ClassStatusPrepared    int32 = 2
	ClassStatusInitialized int32 = 4
	ClassStatusError       int32 = 8
)

const (
	ErrorNone               = ErrorCode(0)
	ErrorInvalidThread      = ErrorCode(10)
	ErrorInvalidThreadGroup = ErrorCode(11)
	ErrorInvalidPriority    = ErrorCode(12)
	ErrorThreadNotSuspended = ErrorCode(13)
	ErrorThreadSuspended    = ErrorCode(14)
	ErrorThreadNotAlive     = ErrorCode(15)
	ErrorInvalidObject      = ErrorCode(20)
	ErrorInvalidClass       = ErrorCode(21)
	ErrorClassNotPrepared   = ErrorCode(22)
	ErrorInvalidMethodID    = ErrorCode(23)
	ErrorInvalidLocation    = ErrorCode(24)
	ErrorInvalidFieldID     = ErrorCode(25)
	ErrorInvalidFrameID     = ErrorCode(30)
	ErrorNoMoreFrames       = ErrorCode(31)
	ErrorOpaqueFrame        = ErrorCode(32)
	ErrorNotCurrentFrame    = ErrorCode(33)
	ErrorTypeMismatch       = ErrorCode(34)
	ErrorInvalidSlot        = ErrorCode(35)
	ErrorDuplicate          = ErrorCode(40)
	ErrorNotFound           = ErrorCode(41)
	ErrorInvalidMonitor     = ErrorCode(50)
	ErrorNotMonitorOwner    = ErrorCode(51)
	ErrorInterrupt          = ErrorCode(52)
	ErrorInvalidClassFormat = ErrorCode(60)
	ErrorNotImplemented     = ErrorCode(99)
	ErrorNullPointer        = ErrorCode(100)
	ErrorAbsentInformation  = ErrorCode(101)
	ErrorInvalidEventType   = ErrorCode(102)
	ErrorIllegalArgument    = ErrorCode(103)
	ErrorOutOfMemory        = ErrorCode(110)
	ErrorAccessDenied       = ErrorCode(111)
	ErrorVMDead             = ErrorCode(112)
	ErrorInternal           = ErrorCode(113)
	ErrorUnattachedThread   = ErrorCode(115)
	ErrorInvalidTag         = ErrorCode(500)
	ErrorAlreadyInvoking    = ErrorCode(502)
	ErrorInvalidIndex       = ErrorCode(503)
	ErrorInvalidLength      = ErrorCode(504)
	ErrorInvalidString      = ErrorCode(506)
	ErrorInvalidClassLoader = ErrorCode(507)
	ErrorInvalidArray       = ErrorCode(508)
	ErrorTransportLoad      = ErrorCode(509)
	ErrorTransportInit      = ErrorCode(510)
	ErrorNativeMethod       = ErrorCode(511)
	ErrorInvalidCount       = ErrorCode(512)
)

var errorCodeNameMap = map[ErrorCode]string{
	ErrorNone:               "NONE",
	ErrorInvalidThread:      "INVALID_THREAD",
	ErrorInvalidThreadGroup: "INVALID_THREAD_GROUP",
	ErrorInvalidPriority:    "INVALID_PRIORITY",
	ErrorThreadNotSuspended: "THREAD_NOT_SUSPENDED",
	ErrorThreadSuspended:    "THREAD_SUSPENDED",
	ErrorThreadNotAlive:     "THREAD_NOT_ALIVE",
	ErrorInvalidObject:      "INVALID_OBJECT",
	ErrorInvalidClass:       "INVALID_CLASS",
	ErrorClassNotPrepared:   "CLASS_NOT_PREPARED",
	ErrorInvalidMethodID:    "INVALID_METHODID",
	ErrorInvalidLocation:    "INVALID_LOCATION",
	ErrorInvalidFieldID:     "INVALID_FIELDID",
	ErrorInvalidFrameID:     "INVALID_FRAMEID",
	ErrorNoMoreFrames:       "NO_MORE_FRAMES",
	ErrorOpaqueFrame:        "OPAQUE_FRAME",
	ErrorNotCurrentFrame:    "NOT_CURRENT_FRAME",
	ErrorTypeMismatch:       "TYPE_MISMATCH",
	ErrorInvalidSlot:        "INVALID_SLOT",
	ErrorDuplicate:          "DUPLICATE",
	ErrorNotFound:           "NOT_FOUND",
	ErrorInvalidMonitor:     "INVALID_MONITOR",
	ErrorNotMonitorOwner:    "NOT_MONITOR_OWNER",
	ErrorInterrupt:          "INTERRUPT",
	ErrorInvalidClassFormat: "INVALID_CLASS_FORMAT",
	ErrorNotImplemented:     "NOT_IMPLEMENTED",
	ErrorNullPointer:        "NULL_POINTER",
	ErrorAbsentInformation:  "ABSENT_INFORMATION",
	ErrorInvalidEventType:   "INVALID_EVENT_TYPE",
	ErrorIllegalArgument:    "ILLEGAL_ARGUMENT",
	ErrorOutOfMemory:        "OUT_OF_MEMORY",
	ErrorAccessDenied:       "ACCESS_DENIED",
	ErrorVMDead:             "VM_DEAD",
	ErrorInternal:           "INTERNAL",
	ErrorUnattachedThread:   "UNATTACHED_THREAD",
	ErrorInvalidTag:         "INVALID_TAG",
	ErrorAlreadyInvoking:    "ALREADY_INVOKING",
	ErrorInvalidIndex:       "INVALID_INDEX",
	ErrorInvalidLength:      "INVALID_LENGTH",
	ErrorInvalidString:      "INVALID_STRING",
	ErrorInvalidClassLoader: "INVALID_CLASS_LOADER",
	ErrorInvalidArray:       "INVALID_ARRAY",
	ErrorTransportLoad:      "TRANSPORT_LOAD",
	ErrorTransportInit:      "TRANSPORT_INIT",
	ErrorNativeMethod:       "NATIVE_METHOD",
	ErrorInvalidCount:       "INVALID_COUNT",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNameMap[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", uint16(c))
}

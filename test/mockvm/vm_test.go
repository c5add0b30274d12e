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

package mockvm

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jdwpcheck/pkg/proto"
)

func roundTrip(t *testing.T, conn net.Conn, p *proto.Packet) *proto.Packet {
	t.Helper()
	_, err := p.Write(conn)
	require.NoError(t, err)
	var reply proto.Packet
	_, err = reply.Read(conn, 0)
	require.NoError(t, err)
	return &reply
}

func TestIDSizesAndUnknownCommand(t *testing.T) {
	vm := New(DefaultIDSizes)
	conn := vm.Pipe(false)
	defer conn.Close()

	reply := roundTrip(t, conn, proto.NewCommandPacket(3, proto.CmdVMIDSizes, nil))
	assert.True(t, reply.IsReply())
	assert.Equal(t, uint32(3), reply.ID)
	sizes, err := proto.DecodeIDSizes(reply.Reader(proto.IDSizes{}))
	require.NoError(t, err)
	assert.Equal(t, DefaultIDSizes, sizes)

	reply = roundTrip(t, conn, proto.NewCommandPacket(4, proto.CmdVMVersion, nil))
	assert.Equal(t, proto.ErrorNotImplemented, reply.ErrorCode)
	assert.Equal(t, []proto.Command{proto.CmdVMIDSizes, proto.CmdVMVersion}, vm.Commands())
}

func TestExitReportsStatus(t *testing.T) {
	prog := &ExceptionProgram{}
	vm := NewExceptionVM(prog)
	conn := vm.Pipe(false)
	defer conn.Close()

	reply := roundTrip(t, conn, proto.NewCommandPacket(1, proto.CmdVMDispose, nil))
	assert.Equal(t, proto.ErrorNone, reply.ErrorCode)
	assert.True(t, prog.Disposed())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code, err := vm.Process().WaitFor(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultExitCode, code)
}

func TestClassPrepareOnResume(t *testing.T) {
	vm := NewExceptionVM(&ExceptionProgram{})
	conn := vm.Pipe(false)
	defer conn.Close()

	w := proto.NewWriter(DefaultIDSizes)
	req := &proto.EventRequest{
		Kind:          proto.EventClassPrepare,
		SuspendPolicy: proto.SuspendAll,
		Modifiers:     []proto.EventModifier{proto.ClassMatch(TestedClassName)},
	}
	req.Encode(w)
	reply := roundTrip(t, conn, proto.NewCommandPacket(1, proto.CmdEventRequestSet, w.Bytes()))
	id, err := reply.Reader(DefaultIDSizes).ReadInt()
	require.NoError(t, err)
	assert.NotZero(t, id)

	roundTrip(t, conn, proto.NewCommandPacket(2, proto.CmdVMResume, nil))
	var event proto.Packet
	_, err = event.Read(conn, 0)
	require.NoError(t, err)
	set, err := proto.DecodeEventPacket(&event, DefaultIDSizes)
	require.NoError(t, err)
	require.Len(t, set.Events, 1)
	assert.Equal(t, proto.EventClassPrepare, set.Events[0].Kind)
	assert.Equal(t, id, set.Events[0].RequestID)
	assert.Equal(t, TestedClassID, set.Events[0].Data.(*proto.ClassPrepareEvent).TypeID)
}

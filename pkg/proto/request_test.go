package proto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRequestEncoding(t *testing.T) {
	req := &EventRequest{
		Kind:          EventException,
		SuspendPolicy: SuspendAll,
		Modifiers:     []EventModifier{ClassOnly(7)},
	}
	w := NewWriter(sizes8)
	req.Encode(w)
	require.NoError(t, w.Err())
	assert.Equal(t, []byte{
		0x04, 0x02, // EXCEPTION, ALL
		0, 0, 0, 1,
		0x04, 0, 0, 0, 0, 0, 0, 0, 7, // CLASS_ONLY classID
	}, w.Bytes())

	r := NewReader(w.Bytes(), sizes8)
	got, err := DecodeEventRequest(r)
	require.NoError(t, err)
	assert.Equal(t, req, got)
	assert.True(t, r.IsParsed())
}

func TestEventRequestModifiers(t *testing.T) {
	req := &EventRequest{
		Kind:          EventBreakpoint,
		SuspendPolicy: SuspendEventThread,
		Modifiers: []EventModifier{
			LocationOnly(Location{TypeTagClass, 7, 2, 4}),
			CountModifier(1),
			ThreadOnly(0x71),
			ClassMatch("p.Tested"),
			ClassExclude("java.*"),
			ExceptionOnly(0, true, false),
		},
	}
	w := NewWriter(sizes4)
	req.Encode(w)
	require.NoError(t, w.Err())

	got, err := DecodeEventRequest(NewReader(w.Bytes(), sizes4))
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestUnsupportedModifier(t *testing.T) {
	w := NewWriter(sizes8)
	m := EventModifier{Kind: ModStep}
	m.Encode(w)
	assert.True(t, errors.Is(w.Err(), ErrUnsupportedModifier))

	raw := []byte{byte(EventException), byte(SuspendAll), 0, 0, 0, 1, byte(ModFieldOnly)}
	_, err := DecodeEventRequest(NewReader(raw, sizes8))
	assert.True(t, errors.Is(err, ErrUnsupportedModifier))
}

func TestMembersAndClasses(t *testing.T) {
	methods := []MemberInfo{
		{ID: 3, Name: "run", Signature: "()V", ModBits: 1},
		{ID: 4, Name: "methodForThrow", Signature: "()V", ModBits: 0},
	}
	w := NewWriter(sizes4)
	EncodeMembers(w, IDKindMethod, methods)
	EncodeClasses(w, []ClassInfo{{TypeTagClass, 7, ClassStatusPrepared}})
	EncodeValues(w, []Value{ObjectValue(TagObject, 0xE9)})
	require.NoError(t, w.Err())

	r := NewReader(w.Bytes(), sizes4)
	got, err := DecodeMembers(r, IDKindMethod)
	require.NoError(t, err)
	assert.Equal(t, methods, got)
	m, ok := FindMember(got, "methodForThrow")
	assert.True(t, ok)
	assert.Equal(t, uint64(4), m.ID)
	_, ok = FindMember(got, "missing")
	assert.False(t, ok)

	classes, err := DecodeClasses(r)
	require.NoError(t, err)
	assert.Equal(t, ReferenceTypeID(7), classes[0].TypeID)

	values, err := DecodeValues(r)
	require.NoError(t, err)
	assert.Equal(t, ObjectID(0xE9), values[0].ObjectID())
	assert.NoError(t, r.CheckParsed())

	_, err = DecodeMembers(NewReader([]byte{0, 0, 0, 50}, sizes4), IDKindMethod)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

// Package v1 holds the progress report messages.
// The Go types are kept in sync with progress.proto by hand, using the
// struct-tag message form understood by github.com/golang/protobuf.
package v1

import (
	"github.com/golang/protobuf/proto"
)

// Progress is published while a file is being sent.
type Progress struct {
	Id                   string   `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Event                string   `protobuf:"bytes,2,opt,name=event,proto3" json:"event,omitempty"`
	Line                 uint32   `protobuf:"varint,3,opt,name=line,proto3" json:"line,omitempty"`
	Consumed             uint64   `protobuf:"varint,4,opt,name=consumed,proto3" json:"consumed,omitempty"`
	Total                uint64   `protobuf:"varint,5,opt,name=total,proto3" json:"total,omitempty"`
	Frames               uint64   `protobuf:"varint,6,opt,name=frames,proto3" json:"frames,omitempty"`
	Done                 bool     `protobuf:"varint,7,opt,name=done,proto3" json:"done,omitempty"`
	Command              string   `protobuf:"bytes,8,opt,name=command,proto3" json:"command,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Progress) Reset()         { *m = Progress{} }
func (m *Progress) String() string { return proto.CompactTextString(m) }
func (*Progress) ProtoMessage()    {}

func (m *Progress) GetId() string {
	if m != nil {
		return m.Id
	}
	return ""
}

func (m *Progress) GetEvent() string {
	if m != nil {
		return m.Event
	}
	return ""
}

func (m *Progress) GetLine() uint32 {
	if m != nil {
		return m.Line
	}
	return 0
}

func (m *Progress) GetConsumed() uint64 {
	if m != nil {
		return m.Consumed
	}
	return 0
}

func (m *Progress) GetTotal() uint64 {
	if m != nil {
		return m.Total
	}
	return 0
}

func (m *Progress) GetFrames() uint64 {
	if m != nil {
		return m.Frames
	}
	return 0
}

func (m *Progress) GetDone() bool {
	if m != nil {
		return m.Done
	}
	return false
}

func (m *Progress) GetCommand() string {
	if m != nil {
		return m.Command
	}
	return ""
}

func init() {
	proto.RegisterType((*Progress)(nil), "gcode.v1.Progress")
}

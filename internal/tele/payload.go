package tele

import (
	"encoding/json"

	"github.com/golang/protobuf/proto"
	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/hardware/yc01"
)

const (
	FormatJSON  = "json"
	FormatProto = "proto"
)

// EncodeStatus serializes status for the wire, format is json or proto.
func EncodeStatus(format string, s *Status) ([]byte, error) {
	switch format {
	case "", FormatJSON:
		b, err := json.Marshal(s)
		return b, errors.Annotate(err, "status json")
	case FormatProto:
		b, err := proto.Marshal(StatusToProto(s))
		return b, errors.Annotate(err, "status proto")
	}
	return nil, errors.NotValidf("status format=%s", format)
}

// StatusMessage is compact protobuf form of Status.
type StatusMessage struct {
	MessageId     string          `protobuf:"bytes,1,opt,name=message_id,json=messageId,proto3" json:"message_id,omitempty"`
	Node          string          `protobuf:"bytes,2,opt,name=node,proto3" json:"node,omitempty"`
	Cycle         uint64          `protobuf:"varint,3,opt,name=cycle,proto3" json:"cycle,omitempty"`
	TimeMs        int64           `protobuf:"varint,4,opt,name=time_ms,json=timeMs,proto3" json:"time_ms,omitempty"`
	Outcome       string          `protobuf:"bytes,5,opt,name=outcome,proto3" json:"outcome,omitempty"`
	Message       string          `protobuf:"bytes,6,opt,name=message,proto3" json:"message,omitempty"`
	DeviceAddress string          `protobuf:"bytes,7,opt,name=device_address,json=deviceAddress,proto3" json:"device_address,omitempty"`
	DeviceName    string          `protobuf:"bytes,8,opt,name=device_name,json=deviceName,proto3" json:"device_name,omitempty"`
	Reading       *ReadingMessage `protobuf:"bytes,9,opt,name=reading,proto3" json:"reading,omitempty"`
	NetworkState  string          `protobuf:"bytes,10,opt,name=network_state,json=networkState,proto3" json:"network_state,omitempty"`
	NetworkUsable bool            `protobuf:"varint,11,opt,name=network_usable,json=networkUsable,proto3" json:"network_usable,omitempty"`
	SinkReachable bool            `protobuf:"varint,12,opt,name=sink_reachable,json=sinkReachable,proto3" json:"sink_reachable,omitempty"`
	NextCycleMs   int64           `protobuf:"varint,13,opt,name=next_cycle_ms,json=nextCycleMs,proto3" json:"next_cycle_ms,omitempty"`
	Version       string          `protobuf:"bytes,14,opt,name=version,proto3" json:"version,omitempty"`
}

func (m *StatusMessage) Reset()         { *m = StatusMessage{} }
func (m *StatusMessage) String() string { return proto.CompactTextString(m) }
func (*StatusMessage) ProtoMessage()    {}

type ReadingMessage struct {
	Type        uint32  `protobuf:"varint,1,opt,name=type,proto3" json:"type,omitempty"`
	TimeMs      int64   `protobuf:"varint,2,opt,name=time_ms,json=timeMs,proto3" json:"time_ms,omitempty"`
	Rssi        int32   `protobuf:"zigzag32,3,opt,name=rssi,proto3" json:"rssi,omitempty"`
	Ph          float64 `protobuf:"fixed64,4,opt,name=ph,proto3" json:"ph,omitempty"`
	Ec          float64 `protobuf:"fixed64,5,opt,name=ec,proto3" json:"ec,omitempty"`
	Salt        float64 `protobuf:"fixed64,6,opt,name=salt,proto3" json:"salt,omitempty"`
	Tds         float64 `protobuf:"fixed64,7,opt,name=tds,proto3" json:"tds,omitempty"`
	Orp         float64 `protobuf:"fixed64,8,opt,name=orp,proto3" json:"orp,omitempty"`
	Chlorine    float64 `protobuf:"fixed64,9,opt,name=chlorine,proto3" json:"chlorine,omitempty"`
	Temperature float64 `protobuf:"fixed64,10,opt,name=temperature,proto3" json:"temperature,omitempty"`
	Battery     float64 `protobuf:"fixed64,11,opt,name=battery,proto3" json:"battery,omitempty"`
	SensorType  string  `protobuf:"bytes,12,opt,name=sensor_type,json=sensorType,proto3" json:"sensor_type,omitempty"`
}

func (m *ReadingMessage) Reset()         { *m = ReadingMessage{} }
func (m *ReadingMessage) String() string { return proto.CompactTextString(m) }
func (*ReadingMessage) ProtoMessage()    {}

func StatusToProto(s *Status) *StatusMessage {
	m := &StatusMessage{
		MessageId:     s.MessageID,
		Node:          s.Node,
		Version:       s.Version,
		Cycle:         s.Cycle,
		Outcome:       s.Outcome,
		Message:       s.Message,
		Reading:       ReadingToProto(s.Reading),
		NetworkState:  s.Connectivity.State,
		NetworkUsable: s.Connectivity.Usable,
		SinkReachable: s.SinkReachable,
	}
	if !s.Time.IsZero() {
		m.TimeMs = s.Time.UnixMilli()
	}
	if !s.NextCycle.IsZero() {
		m.NextCycleMs = s.NextCycle.UnixMilli()
	}
	if s.Device != nil {
		m.DeviceAddress = string(s.Device.Address)
		m.DeviceName = s.Device.Name
	}
	return m
}

func ReadingToProto(r *yc01.Reading) *ReadingMessage {
	if r == nil {
		return nil
	}
	return &ReadingMessage{
		Type:        uint32(r.Type),
		TimeMs:      r.Time.UnixMilli(),
		Rssi:        int32(r.RSSI),
		Ph:          r.PH,
		Ec:          r.EC,
		Salt:        r.Salt,
		Tds:         r.TDS,
		Orp:         r.ORP,
		Chlorine:    r.Chlorine,
		Temperature: r.Temperature,
		Battery:     r.Battery,
		SensorType:  r.SensorType,
	}
}

package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// 操作类型
	OpHeartbeat      = 2  // 心跳
	OpHeartbeatReply = 3  // 心跳回应，包体为在线人数
	OpFeed           = 5  // 弹幕
	OpGift           = 6  // 礼物事件
	OpReaction       = 7  // 飘屏表情
	OpSnapshot       = 8  // 进房快照
	OpRefresh        = 9  // 刷新状态与场景描述
	OpReply          = 10 // 指令处理结果
)

const (
	// 协议版本
	ProtocolVersion = 1
	// 头部长度
	HeaderLength = 16
	// 包长度上限
	MaxPacketLength = 1 << 20
)

type Packet struct {
	PacketLength int32  // 包长度
	HeaderLength int16  // 头部长度
	Version      int16  // 协议版本
	Operation    int32  // 操作类型
	SequenceID   int32  // 序列号
	Body         []byte // 包体
}

// 编码数据包
func (p *Packet) Encode() []byte {
	buf := new(bytes.Buffer)
	buf.Grow(HeaderLength + len(p.Body))

	binary.Write(buf, binary.BigEndian, p.PacketLength)
	binary.Write(buf, binary.BigEndian, p.HeaderLength)
	binary.Write(buf, binary.BigEndian, p.Version)
	binary.Write(buf, binary.BigEndian, p.Operation)
	binary.Write(buf, binary.BigEndian, p.SequenceID)

	if p.Body != nil {
		buf.Write(p.Body)
	}

	return buf.Bytes()
}

// 解码数据包
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) < HeaderLength {
		return nil, errors.New("packet shorter than header")
	}

	buf := bytes.NewReader(data)
	packet := &Packet{}

	binary.Read(buf, binary.BigEndian, &packet.PacketLength)
	binary.Read(buf, binary.BigEndian, &packet.HeaderLength)
	binary.Read(buf, binary.BigEndian, &packet.Version)
	binary.Read(buf, binary.BigEndian, &packet.Operation)
	binary.Read(buf, binary.BigEndian, &packet.SequenceID)

	if int(packet.PacketLength) != len(data) {
		return nil, fmt.Errorf("packet length mismatch: header %d, actual %d", packet.PacketLength, len(data))
	}

	if len(data) > HeaderLength {
		packet.Body = data[HeaderLength:]
	}

	return packet, nil
}

// 创建数据包
func NewPacket(op int32, seq int32, body []byte) *Packet {
	return &Packet{
		PacketLength: int32(HeaderLength + len(body)),
		HeaderLength: HeaderLength,
		Version:      ProtocolVersion,
		Operation:    op,
		SequenceID:   seq,
		Body:         body,
	}
}

// 创建 JSON 包体的数据包
func NewJSONPacket(op int32, seq int32, v interface{}) (*Packet, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if HeaderLength+len(body) > MaxPacketLength {
		return nil, fmt.Errorf("packet body too large: %d", len(body))
	}
	return NewPacket(op, seq, body), nil
}

// 创建心跳回应包
func NewHeartbeatReply(seq int32, online int) *Packet {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, uint32(online))
	return NewPacket(OpHeartbeatReply, seq, body)
}

// 解析心跳回应中的在线人数
func OnlineCount(p *Packet) (int, error) {
	if p.Operation != OpHeartbeatReply || len(p.Body) < 4 {
		return 0, errors.New("not a heartbeat reply")
	}
	return int(binary.BigEndian.Uint32(p.Body[:4])), nil
}

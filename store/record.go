package store

import (
	"github.com/RuiFG/statesync/value"
	"github.com/cespare/xxhash"
	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	seqField   protowire.Number = 1
	valueField protowire.Number = 2
	sumField   protowire.Number = 3
)

// record layout: field 1 seq (varint), field 2 google.protobuf.Value (bytes),
// field 3 xxhash64 of field 2 (fixed64). A record without field 3 is not
// verified.
func encodeRecord(seq uint64, v value.Value) ([]byte, error) {
	payload, err := proto.Marshal(value.ToProto(v))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to marshal value")
	}
	buf := protowire.AppendTag(nil, seqField, protowire.VarintType)
	buf = protowire.AppendVarint(buf, seq)
	buf = protowire.AppendTag(buf, valueField, protowire.BytesType)
	buf = protowire.AppendBytes(buf, payload)
	buf = protowire.AppendTag(buf, sumField, protowire.Fixed64Type)
	return protowire.AppendFixed64(buf, xxhash.Sum64(payload)), nil
}

func decodeRecord(key []byte, data []byte) (Entry, error) {
	entry := Entry{Key: key, Value: value.Null{}}
	var (
		payload []byte
		sum     uint64
		summed  bool
	)
	for len(data) > 0 {
		number, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Entry{}, errors.WithMessage(protowire.ParseError(n), "corrupted record tag")
		}
		data = data[n:]
		switch {
		case number == seqField && typ == protowire.VarintType:
			seq, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return Entry{}, errors.WithMessage(protowire.ParseError(m), "corrupted record seq")
			}
			entry.Seq, data = seq, data[m:]
		case number == valueField && typ == protowire.BytesType:
			var m int
			payload, m = protowire.ConsumeBytes(data)
			if m < 0 {
				return Entry{}, errors.WithMessage(protowire.ParseError(m), "corrupted record value")
			}
			data = data[m:]
		case number == sumField && typ == protowire.Fixed64Type:
			var m int
			sum, m = protowire.ConsumeFixed64(data)
			if m < 0 {
				return Entry{}, errors.WithMessage(protowire.ParseError(m), "corrupted record checksum")
			}
			summed, data = true, data[m:]
		default:
			m := protowire.ConsumeFieldValue(number, typ, data)
			if m < 0 {
				return Entry{}, errors.WithMessage(protowire.ParseError(m), "corrupted record field")
			}
			data = data[m:]
		}
	}
	if payload == nil {
		return entry, nil
	}
	if summed && xxhash.Sum64(payload) != sum {
		return Entry{}, errors.Errorf("record checksum mismatch for %q", key)
	}
	message := &structpb.Value{}
	if err := proto.Unmarshal(payload, message); err != nil {
		return Entry{}, errors.WithMessage(err, "failed to unmarshal value")
	}
	v, err := value.FromProto(message)
	if err != nil {
		return Entry{}, err
	}
	entry.Value = v
	return entry, nil
}

func encodeSeq(seq uint64) []byte {
	return protowire.AppendVarint(nil, seq)
}

func decodeSeq(data []byte) (uint64, error) {
	seq, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, errors.WithMessage(protowire.ParseError(n), "corrupted sequence counter")
	}
	return seq, nil
}

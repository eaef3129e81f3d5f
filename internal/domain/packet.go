package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Packet is one decoded telemetry record. Values are indexed by FieldID;
// bool fields are stored as 0/1. A packet is immutable once decoded and is
// owned by whichever pipeline stage currently holds it.
type Packet struct {
	// RawTime is the boot-relative clock in seconds (cur_time / 1000).
	RawTime float64
	// ReceivedAt is the ground-station wall clock when the record arrived.
	ReceivedAt time.Time
	Values     [NumFields]float64
}

// Sample is one (time, source, value) triple derived from a packet. Time is
// mission-relative seconds once a takeoff offset is set, boot-relative before.
type Sample struct {
	Time   float64 `json:"time"`
	Source string  `json:"source"`
	Value  float64 `json:"value"`
}

// Decode parses one raw CSV record into a Packet. It is pure and stateless;
// malformed input is rejected without side effects.
func Decode(line string, receivedAt time.Time) (*Packet, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != NumFields {
		return nil, fmt.Errorf("expected %d fields, got %d", NumFields, len(parts))
	}

	p := &Packet{ReceivedAt: receivedAt}
	for i, def := range Fields {
		raw := strings.TrimSpace(parts[i])
		switch def.Kind {
		case KindInt:
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", def.Name, err)
			}
			p.Values[def.ID] = float64(v)
		case KindFloat:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", def.Name, err)
			}
			p.Values[def.ID] = v
		case KindBool:
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", def.Name, err)
			}
			if v != 0 {
				p.Values[def.ID] = 1
			}
		}
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	p.RawTime = p.Values[FieldCurTime] / 1000.0
	return p, nil
}

func (p *Packet) validate() error {
	// GPS coordinates arrive scaled by 10^7; longitude bounds cover both.
	for _, id := range []FieldID{FieldGPSLat, FieldGPSLng} {
		if v := p.Values[id]; v < -1800000000 || v > 1800000000 {
			return fmt.Errorf("field %s: coordinate out of range: %v", Fields[id].Name, v)
		}
	}
	if stage := p.Values[FieldFlightStage]; stage < 0 || stage > 6 {
		return fmt.Errorf("field flight_stage: out of range: %v", stage)
	}
	return nil
}

// Samples derives the chartable sources from the packet. All samples share
// one normalized time: raw minus offset when offset is set, raw otherwise.
func (p *Packet) Samples(offset *float64) []Sample {
	t := p.RawTime
	if offset != nil {
		t -= *offset
	}

	out := make([]Sample, 0, SamplesPerPacket)
	for _, def := range sampleDefs {
		v := p.Values[def.Field]
		if def.Convert != nil {
			v = def.Convert(v)
		}
		out = append(out, Sample{Time: t, Source: def.Source, Value: v})
	}
	return out
}

// Row formats the packet for the durable log: the received wall clock
// followed by every field in wire order, undamped.
func (p *Packet) Row() []string {
	row := make([]string, 0, NumFields+1)
	row = append(row, p.ReceivedAt.Format(time.RFC3339Nano))
	for _, def := range Fields {
		v := p.Values[def.ID]
		switch def.Kind {
		case KindFloat:
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			row = append(row, strconv.FormatInt(int64(v), 10))
		}
	}
	return row
}

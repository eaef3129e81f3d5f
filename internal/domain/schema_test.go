package domain

import "testing"

// The wire table, the field ID space, and the sample derivation all describe
// the same record layout; any drift between them corrupts decode offsets.
func TestSchemaIsInternallyConsistent(t *testing.T) {
	if len(Fields) != NumFields {
		t.Fatalf("wire table lists %d fields, ID space has %d", len(Fields), NumFields)
	}

	names := make(map[string]bool, NumFields)
	for i, def := range Fields {
		if def.ID != FieldID(i) {
			t.Fatalf("field %q at wire position %d carries ID %d", def.Name, i, def.ID)
		}
		if def.Name == "" {
			t.Fatalf("field at wire position %d has no name", i)
		}
		if names[def.Name] {
			t.Fatalf("duplicate field name %q", def.Name)
		}
		names[def.Name] = true
	}

	if SamplesPerPacket != len(sampleDefs) {
		t.Fatalf("SamplesPerPacket = %d, sample table holds %d", SamplesPerPacket, len(sampleDefs))
	}
	sources := make(map[string]bool, SamplesPerPacket)
	for _, def := range sampleDefs {
		if def.Field < 0 || int(def.Field) >= NumFields {
			t.Fatalf("sample %q points at field %d outside the record", def.Source, def.Field)
		}
		if sources[def.Source] {
			t.Fatalf("duplicate sample source %q", def.Source)
		}
		sources[def.Source] = true
	}
}

func TestFieldNamesMatchWireOrder(t *testing.T) {
	names := FieldNames()
	if len(names) != NumFields {
		t.Fatalf("expected %d header columns, got %d", NumFields, len(names))
	}
	if names[0] != "cur_time" || names[NumFields-1] != "flight_stage" {
		t.Fatalf("header columns out of wire order: first=%q last=%q", names[0], names[NumFields-1])
	}
}

package bronzeio

import (
	"encoding/csv"
	"io"

	"github.com/neomantra/pointline"
)

// ReadCSVFrame reads a headered CSV stream into a Frame of Utf8 columns,
// one per header, empty fields marked null. Vendor parsers (vendors/tardis,
// vendors/quant360) cast the raw string columns they need into typed ones;
// this stage never infers numeric types itself, mirroring the reference
// pipeline's infer_schema_length=0 read.
func ReadCSVFrame(r io.Reader) (*pointline.Frame, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err == io.EOF {
		return pointline.EmptyFrame(), nil
	}
	if err != nil {
		return nil, err
	}
	headers = append([]string(nil), headers...)

	values := make([][]string, len(headers))
	nullMasks := make([][]bool, len(headers))
	anyNull := make([]bool, len(headers))

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, field := range record {
			values[i] = append(values[i], field)
			isNull := field == ""
			nullMasks[i] = append(nullMasks[i], !isNull)
			if isNull {
				anyNull[i] = true
			}
		}
	}

	cols := make([]*pointline.Column, len(headers))
	for i, name := range headers {
		col := pointline.NewColumn(name, values[i])
		if anyNull[i] {
			col.Valid = nullMasks[i]
		}
		cols[i] = col
	}
	return pointline.NewFrame(cols...), nil
}

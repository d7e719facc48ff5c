package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"percances/internal/frame"
)

func parquetMeta(f *frame.Frame) []string {
	md := make([]string, 0, f.Width())
	for _, col := range f.Columns() {
		switch col.Kind {
		case frame.KindInt:
			md = append(md, fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", col.Name))
		case frame.KindFloat:
			md = append(md, fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", col.Name))
		default:
			md = append(md, fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", col.Name))
		}
	}
	return md
}

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToLower(name) {
	case "snappy":
		return parquet.CompressionCodec_SNAPPY, nil
	case "gzip":
		return parquet.CompressionCodec_GZIP, nil
	case "zstd":
		return parquet.CompressionCodec_ZSTD, nil
	case "uncompressed", "none":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return parquet.CompressionCodec_SNAPPY, fmt.Errorf("unsupported parquet compression: %s", name)
	}
}

func exportParquet(f *frame.Frame, path string, opts *Options) error {
	codec, err := compressionCodec(opts.compression())
	if err != nil {
		return err
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}

	pw, err := writer.NewCSVWriter(parquetMeta(f), fw, 1)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = codec

	cols := f.Columns()
	for row := 0; row < f.Rows(); row++ {
		record := make([]*string, len(cols))
		for i, col := range cols {
			record[i] = col.Cells[row]
		}
		if err := pw.WriteString(record); err != nil {
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// ReadParquet reconstructs a frame from a file written by Export. Kinds
// come from the parquet physical types, null cells from JSON nulls in
// the decoded rows.
func ReadParquet(path string) (*frame.Frame, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	schema := pr.Footer.GetSchema()
	if len(schema) < 1 {
		return nil, fmt.Errorf("parquet file %s has no schema", path)
	}

	names := make([]string, 0, len(schema)-1)
	kinds := make([]frame.Kind, 0, len(schema)-1)
	for _, elem := range schema[1:] {
		names = append(names, elem.GetName())
		switch elem.GetType() {
		case parquet.Type_INT64:
			kinds = append(kinds, frame.KindInt)
		case parquet.Type_DOUBLE:
			kinds = append(kinds, frame.KindFloat)
		default:
			kinds = append(kinds, frame.KindString)
		}
	}

	out, err := frame.New(names...)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		out.SetKind(name, kinds[i])
	}

	raw, err := pr.ReadByNumber(int(pr.GetNumRows()))
	if err != nil {
		return nil, err
	}
	blob, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(blob, &rows); err != nil {
		return nil, err
	}

	for _, row := range rows {
		cells := make([]*string, len(names))
		for i, name := range names {
			value, ok := row[name]
			if !ok {
				// The reader's generated row struct may expose the
				// exported Go field name instead of the column name.
				value = row[headToUpper(name)]
			}
			if value == nil {
				continue
			}
			cells[i] = frame.Str(cellText(value, kinds[i]))
		}
		if err := out.AppendRow(cells); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func cellText(value any, kind frame.Kind) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if kind == frame.KindInt {
			return strconv.FormatInt(int64(math.Round(v)), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func headToUpper(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package smtx

import (
	"bufio"
	"io"
	"strconv"
)

// Write encodes m in the benchmark text format.
func Write(w io.Writer, m *Matrix) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 32)

	buf = strconv.AppendInt(buf[:0], int64(m.MVec), 10)
	buf = append(buf, ", "...)
	buf = strconv.AppendInt(buf, int64(m.N), 10)
	buf = append(buf, ", "...)
	buf = strconv.AppendInt(buf, int64(m.NNZVec), 10)
	buf = append(buf, '\n')
	if _, err := bw.Write(buf); err != nil {
		return err
	}
	if err := writeInts(bw, m.RowOffsets); err != nil {
		return err
	}
	if err := writeInts(bw, m.ColIndices); err != nil {
		return err
	}
	return bw.Flush()
}

func writeInts(bw *bufio.Writer, vals []int) error {
	buf := make([]byte, 0, 16)
	for i, v := range vals {
		buf = buf[:0]
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.WriteByte('\n')
}

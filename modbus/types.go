package modbus

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Scaler can be any object used to help scale modbus values. For trivial
// scaling scenarios (e.g. 'divide by 1000') this is not really required, but
// for more complicated scenarios (e.g. scaling by a configured current
// transformer ratio) it can be necessary to retrieve state from the scaler.
type Scaler interface{}

type valueScalingFunc func(Scaler, interface{}) interface{}

// DataType represents one of the binary encodings a modbus register can
// hold.
type DataType struct {
	name          string
	dataLength    uint16
	fromBytesFunc func([]byte) interface{}
	toBytesFunc   func(interface{}) []byte
}

var FloatType = DataType{
	name:       "float",
	dataLength: 4,
	fromBytesFunc: func(b []byte) interface{} {
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
	},
}

var Int32Type = DataType{
	name:       "int32",
	dataLength: 4,
	fromBytesFunc: func(b []byte) interface{} {
		return int32(binary.BigEndian.Uint32(b))
	},
	toBytesFunc: func(val interface{}) []byte {
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, val.(uint32))
		return b
	},
}

var Uint16Type = DataType{
	name:       "uint16",
	dataLength: 2,
	fromBytesFunc: func(b []byte) interface{} {
		return binary.BigEndian.Uint16(b)
	},
	toBytesFunc: func(val interface{}) []byte {
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, val.(uint16))
		return b
	},
}

var Int16Type = DataType{
	name:       "int16",
	dataLength: 2,
	fromBytesFunc: func(b []byte) interface{} {
		return int16(binary.BigEndian.Uint16(b))
	},
}

var String32Type = DataType{
	name:       "string32",
	dataLength: 32,
	fromBytesFunc: func(b []byte) interface{} {
		return string(bytes.Trim(b, "\x00"))
	},
}

// Metric is a single named value at a fixed offset within a MetricBlock.
type Metric struct {
	StartAddr   uint16
	DataType    DataType
	ScalingFunc valueScalingFunc
}

// MetricBlock is a contiguous run of modbus registers read in one round
// trip, keyed by metric name. Writes go one Metric at a time (WriteMetric).
type MetricBlock struct {
	Name         string
	StartAddr    uint16
	NumRegisters uint16
	Metrics      map[string]Metric
}

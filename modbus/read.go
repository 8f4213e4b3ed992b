package modbus

import (
	"encoding/binary"
	"fmt"

	"github.com/simonvetter/modbus"
)

// PollBlock reads a single metric block from the device and returns a map of
// the parsed values, keyed by metric name. The `scaler` instance is passed
// into any scaling functions defined in the register block.
func (c *Client) PollBlock(scaler Scaler, block MetricBlock) (map[string]interface{}, error) {
	if err := c.reconnectIfNeccesary(); err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}

	registerVals, err := c.subClient.ReadRegisters(block.StartAddr, block.NumRegisters, modbus.HOLDING_REGISTER)
	if err != nil {
		c.setShouldReconnect()
		return nil, fmt.Errorf("read block: %w", err)
	}

	bytes := make([]byte, len(registerVals)*2)
	for i, registerVal := range registerVals {
		loc := i * 2
		binary.BigEndian.PutUint16(bytes[loc:loc+2], registerVal)
	}

	metricVals := make(map[string]interface{}, len(block.Metrics))
	for key, register := range block.Metrics {
		offset := (int(register.StartAddr) - int(block.StartAddr)) * 2
		if offset < 0 {
			return nil, fmt.Errorf("register configuration for `%s` preceeds block", key)
		}
		if offset+int(register.DataType.dataLength) > len(bytes) {
			return nil, fmt.Errorf("register configuration for '%s' exceeds block", key)
		}

		registerBytes := bytes[offset:(offset + int(register.DataType.dataLength))]
		metricVal := register.DataType.fromBytesFunc(registerBytes)

		if register.ScalingFunc != nil {
			metricVal = register.ScalingFunc(scaler, metricVal)
		}

		metricVals[key] = metricVal
	}

	return metricVals, nil
}

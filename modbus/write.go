package modbus

import (
	"encoding/binary"
	"fmt"
)

// WriteMetric writes the given value to the given modbus metric.
func (c *Client) WriteMetric(metric Metric, val interface{}) error {
	if err := c.reconnectIfNeccesary(); err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}

	data := metric.DataType.toBytesFunc(val)
	registerVals := make([]uint16, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		registerVals = append(registerVals, binary.BigEndian.Uint16(data[i:i+2]))
	}

	if err := c.subClient.WriteRegisters(metric.StartAddr, registerVals); err != nil {
		c.setShouldReconnect()
		return fmt.Errorf("write register %d: %w", metric.StartAddr, err)
	}

	return nil
}

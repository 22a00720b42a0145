package configuration

type BluetoothConfig struct {
	Enabled bool `json:"enabled"`

	// Name is the local name advertised by the BLE peripheral.
	Name string `json:"name"`
}

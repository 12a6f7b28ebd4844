package lmhist

type Configuration struct {
	FileIn           string  `json:"file_in"`
	FileOut          string  `json:"file_out"`
	LORTableFile     string  `json:"lor_table"`
	AxialLUTFile     string  `json:"axial_lut"`
	TStart           float64 `json:"tstart"`
	TStop            float64 `json:"tstop"`
	Scanner          string  `json:"scanner"`
	FormatVersion    uint16  `json:"format_version"`
	Verbosity        int     `json:"verbosity"`
	NoDB             bool    `json:"no_db"`
	Host             string  `json:"host"`
	User             string  `json:"user"`
	Passwd           string  `json:"pass"`
	DBName           string  `json:"dbname"`
	NumWorkers       int     `json:"num_workers"`
	Parallel         bool    `json:"parallel"`
	WriteData        bool    `json:"write_data"`
	CompressionLevel int     `json:"compression_level"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}

package obd2

// OBD-II Mode 01 Parameter IDs (Show current data)
const (
	PID_SUPPORTED_01_20   = 0x00
	PID_ENGINE_LOAD       = 0x04
	PID_COOLANT_TEMP      = 0x05
	PID_FUEL_PRESSURE     = 0x0A
	PID_ENGINE_RPM        = 0x0C
	PID_VEHICLE_SPEED     = 0x0D
	PID_INTAKE_TEMP       = 0x0F
	PID_MAF_FLOW          = 0x10
	PID_THROTTLE_POSITION = 0x11
)

// Parameter описывает один параметр Mode 01: PID, формулу декодирования
// и сентинел, который возвращается при отсутствии ответа от ECU.
type Parameter struct {
	PID      byte
	Name     string
	Unit     string
	Sentinel int
	Decode   DecodeFunc
}

// Parameters - таблица всех поддерживаемых параметров.
// Добавление нового параметра сводится к добавлению строки в таблицу.
var Parameters = []Parameter{
	{PID: PID_ENGINE_RPM, Name: "EngineRPM", Unit: "RPM", Sentinel: -1, Decode: DecodeEngineRPM},
	{PID: PID_VEHICLE_SPEED, Name: "VehicleSpeed", Unit: "km/h", Sentinel: -1, Decode: DecodeVehicleSpeed},
	{PID: PID_COOLANT_TEMP, Name: "CoolantTemp", Unit: "°C", Sentinel: -999, Decode: DecodeCoolantTemp},
	{PID: PID_THROTTLE_POSITION, Name: "ThrottlePosition", Unit: "%", Sentinel: -1, Decode: DecodeThrottlePosition},
	{PID: PID_ENGINE_LOAD, Name: "EngineLoad", Unit: "%", Sentinel: -1, Decode: DecodeEngineLoad},
	{PID: PID_INTAKE_TEMP, Name: "IntakeTemp", Unit: "°C", Sentinel: -999, Decode: DecodeIntakeTemp},
	{PID: PID_MAF_FLOW, Name: "MAFFlow", Unit: "g/s", Sentinel: -1, Decode: DecodeMAFFlow},
	{PID: PID_FUEL_PRESSURE, Name: "FuelPressure", Unit: "kPa", Sentinel: -1, Decode: DecodeFuelPressure},
}

// DefaultParameterNames - набор параметров, опрашиваемых по умолчанию.
var DefaultParameterNames = []string{
	"EngineRPM",
	"VehicleSpeed",
	"CoolantTemp",
	"ThrottlePosition",
	"EngineLoad",
}

// ParameterByName ищет параметр в таблице по имени.
func ParameterByName(name string) (Parameter, bool) {
	for _, p := range Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// SelectParameters возвращает параметры для списка имен.
// Неизвестные имена возвращаются вторым значением.
func SelectParameters(names []string) ([]Parameter, []string) {
	var params []Parameter
	var unknown []string
	for _, name := range names {
		p, ok := ParameterByName(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		params = append(params, p)
	}
	return params, unknown
}

package domain

// FieldID indexes one field of the flight-computer record. The schema is
// fixed at compile time so the hot path never dispatches on field names.
type FieldID int

const (
	FieldCurTime FieldID = iota
	FieldGPSLat
	FieldGPSLng
	FieldGPSAlt
	FieldAccelX
	FieldAccelY
	FieldAccelZ
	FieldGyroX
	FieldGyroY
	FieldGyroZ
	FieldHGAccel
	FieldAltitude
	FieldVelocity
	FieldSmoothVel
	FieldPressure
	FieldTemperature
	FieldLaunchsiteMSL
	FieldAirbrakeCont
	FieldABServoPct
	FieldCnrdServoPct
	FieldDroguePyroCont1
	FieldDroguePyroCont2
	FieldMainPyroCont1
	FieldMainPyroCont2
	FieldFlightIndex
	FieldEllipseOn
	FieldCamerasOn
	FieldBatteryVoltage
	FieldFlightStage

	numFieldIDs
)

// NumFields is the record's field count in the wire format.
const NumFields = int(numFieldIDs)

// FieldKind controls parsing and durable-log formatting for a field.
type FieldKind int

const (
	KindInt FieldKind = iota
	KindFloat
	KindBool
)

type FieldDef struct {
	ID   FieldID
	Name string
	Kind FieldKind
}

// Fields lists every record field in wire order. The flight computer
// transmits these as one CSV line at 2Hz.
var Fields = [NumFields]FieldDef{
	{FieldCurTime, "cur_time", KindInt},
	{FieldGPSLat, "gps_lat", KindInt},
	{FieldGPSLng, "gps_lng", KindInt},
	{FieldGPSAlt, "gps_alt", KindInt},
	{FieldAccelX, "accel_x", KindFloat},
	{FieldAccelY, "accel_y", KindFloat},
	{FieldAccelZ, "accel_z", KindFloat},
	{FieldGyroX, "gyro_x", KindFloat},
	{FieldGyroY, "gyro_y", KindFloat},
	{FieldGyroZ, "gyro_z", KindFloat},
	{FieldHGAccel, "hg_accel", KindFloat},
	{FieldAltitude, "altitude", KindFloat},
	{FieldVelocity, "velocity", KindFloat},
	{FieldSmoothVel, "smooth_vel", KindFloat},
	{FieldPressure, "pressure", KindFloat},
	{FieldTemperature, "temperature", KindFloat},
	{FieldLaunchsiteMSL, "launchsite_msl", KindFloat},
	{FieldAirbrakeCont, "airbrake_cont", KindBool},
	{FieldABServoPct, "ab_servo_pct", KindFloat},
	{FieldCnrdServoPct, "cnrd_servo_pct", KindFloat},
	{FieldDroguePyroCont1, "drogue_pyro_cont_1", KindBool},
	{FieldDroguePyroCont2, "drogue_pyro_cont_2", KindBool},
	{FieldMainPyroCont1, "main_pyro_cont_1", KindBool},
	{FieldMainPyroCont2, "main_pyro_cont_2", KindBool},
	{FieldFlightIndex, "flight_index", KindInt},
	{FieldEllipseOn, "ellipse_on", KindBool},
	{FieldCamerasOn, "cameras_on", KindBool},
	{FieldBatteryVoltage, "battery_voltage", KindFloat},
	{FieldFlightStage, "flight_stage", KindInt},
}

// sampleDef maps one record field onto the source name viewers chart.
// Convert applies unit scaling (GPS coordinates arrive as degrees ×10^7,
// GPS altitude in millimeters).
type sampleDef struct {
	Source  string
	Field   FieldID
	Convert func(float64) float64
}

var sampleDefs = [...]sampleDef{
	{"altitude", FieldAltitude, nil},
	{"velocity", FieldVelocity, nil},
	{"smooth_vel", FieldSmoothVel, nil},
	{"battery_voltage", FieldBatteryVoltage, nil},
	{"accelx", FieldAccelX, nil},
	{"accely", FieldAccelY, nil},
	{"accelz", FieldAccelZ, nil},
	{"gyrox", FieldGyroX, nil},
	{"gyroy", FieldGyroY, nil},
	{"gyroz", FieldGyroZ, nil},
	{"hg_accel", FieldHGAccel, nil},
	{"temp", FieldTemperature, nil},
	{"pressure", FieldPressure, nil},
	{"lat", FieldGPSLat, func(v float64) float64 { return v / 1e7 }},
	{"long", FieldGPSLng, func(v float64) float64 { return v / 1e7 }},
	{"gps_alt", FieldGPSAlt, func(v float64) float64 { return v / 1000 }},
	{"stage", FieldFlightStage, nil},
	{"ab_servo", FieldABServoPct, nil},
	{"cnrd_servo", FieldCnrdServoPct, nil},
	{"drogue_cont_1", FieldDroguePyroCont1, nil},
	{"drogue_cont_2", FieldDroguePyroCont2, nil},
	{"main_cont_1", FieldMainPyroCont1, nil},
	{"main_cont_2", FieldMainPyroCont2, nil},
	{"airbrake_cont", FieldAirbrakeCont, nil},
}

// SamplesPerPacket is the number of chartable sources derived from one packet.
const SamplesPerPacket = len(sampleDefs)

// FieldNames returns the durable-log header columns in wire order.
func FieldNames() []string {
	names := make([]string, NumFields)
	for i, def := range Fields {
		names[i] = def.Name
	}
	return names
}

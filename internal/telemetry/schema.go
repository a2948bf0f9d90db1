// Package telemetry maps nested sensor readings to and from the flat metric
// rows kept in the time-series store. Both directions are driven by one
// declarative field table so they stay exact inverses: adding a sensor
// category is a table change, not new control flow.
package telemetry

import (
	"fmt"
	"strings"

	"github.com/djmorgan26/urfmp-sub001/internal/model"
)

// CustomPrefix namespaces free-form numeric fields that have no entry in the
// field table and therefore no unit typing.
const CustomPrefix = "custom."

type valueKind int

const (
	kindNumber valueKind = iota
	kindBoolean
)

// fieldSpec binds one dotted metric name to one nested leaf. get/set must be
// inverse; unit and meta ride on the section, not the leaf.
type fieldSpec struct {
	path    string
	kind    valueKind
	get     func(r *model.TelemetryReading) *float64
	set     func(r *model.TelemetryReading, v float64)
	unit    func(r *model.TelemetryReading) string
	setUnit func(r *model.TelemetryReading, u string)
	meta    func(r *model.TelemetryReading) map[string]string
	setMeta func(r *model.TelemetryReading, m map[string]string)
}

func ensurePosition(r *model.TelemetryReading) *model.Position {
	if r.Position == nil {
		r.Position = &model.Position{}
	}
	return r.Position
}

func ensureJointAngles(r *model.TelemetryReading) *model.JointAngles {
	if r.JointAngles == nil {
		r.JointAngles = &model.JointAngles{}
	}
	return r.JointAngles
}

func ensureVelocity(r *model.TelemetryReading) *model.Velocity {
	if r.Velocity == nil {
		r.Velocity = &model.Velocity{}
	}
	return r.Velocity
}

func ensureTemperature(r *model.TelemetryReading) *model.Temperature {
	if r.Temperature == nil {
		r.Temperature = &model.Temperature{}
	}
	return r.Temperature
}

func ensureMotorTemperature(r *model.TelemetryReading) *model.MotorTemperature {
	t := ensureTemperature(r)
	if t.Motor == nil {
		t.Motor = &model.MotorTemperature{}
	}
	return t.Motor
}

func ensureVoltage(r *model.TelemetryReading) *model.Voltage {
	if r.Voltage == nil {
		r.Voltage = &model.Voltage{}
	}
	return r.Voltage
}

func ensureProgramState(r *model.TelemetryReading) *model.ProgramState {
	if r.ProgramState == nil {
		r.ProgramState = &model.ProgramState{}
	}
	return r.ProgramState
}

func ensureToolData(r *model.TelemetryReading) *model.ToolData {
	if r.ToolData == nil {
		r.ToolData = &model.ToolData{}
	}
	return r.ToolData
}

func ensureSafety(r *model.TelemetryReading) *model.Safety {
	if r.Safety == nil {
		r.Safety = &model.Safety{}
	}
	return r.Safety
}

func ensureGPS(r *model.TelemetryReading) *model.GPSPosition {
	if r.GPSPosition == nil {
		r.GPSPosition = &model.GPSPosition{}
	}
	return r.GPSPosition
}

func ensureNavigation(r *model.TelemetryReading) *model.Navigation {
	if r.Navigation == nil {
		r.Navigation = &model.Navigation{}
	}
	return r.Navigation
}

func boolAsNumber(b *bool) *float64 {
	if b == nil {
		return nil
	}
	v := 0.0
	if *b {
		v = 1
	}
	return &v
}

func numberAsBool(v float64) *bool {
	b := v >= 0.5
	return &b
}

func positionField(path string, sel func(p *model.Position) **float64) fieldSpec {
	return fieldSpec{
		path: path,
		get: func(r *model.TelemetryReading) *float64 {
			if r.Position == nil {
				return nil
			}
			return *sel(r.Position)
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			*sel(ensurePosition(r)) = &val
		},
		meta: func(r *model.TelemetryReading) map[string]string {
			if r.Position == nil || r.Position.Frame == "" {
				return nil
			}
			return map[string]string{"frame": r.Position.Frame}
		},
		setMeta: func(r *model.TelemetryReading, m map[string]string) {
			if f := m["frame"]; f != "" {
				ensurePosition(r).Frame = f
			}
		},
	}
}

func jointAngleField(n int) fieldSpec {
	return fieldSpec{
		path: fmt.Sprintf("joint.%d.angle", n),
		get: func(r *model.TelemetryReading) *float64 {
			if r.JointAngles == nil {
				return nil
			}
			return *r.JointAngles.JointRef(n)
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			*ensureJointAngles(r).JointRef(n) = &val
		},
		unit: func(r *model.TelemetryReading) string {
			if r.JointAngles == nil {
				return ""
			}
			return r.JointAngles.Unit
		},
		setUnit: func(r *model.TelemetryReading, u string) {
			if u != "" {
				ensureJointAngles(r).Unit = u
			}
		},
	}
}

func velocityField(path string, sel func(v *model.Velocity) **float64) fieldSpec {
	return fieldSpec{
		path: path,
		get: func(r *model.TelemetryReading) *float64 {
			if r.Velocity == nil {
				return nil
			}
			return *sel(r.Velocity)
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			*sel(ensureVelocity(r)) = &val
		},
	}
}

func scalarField(path string, sel func(r *model.TelemetryReading) **float64) fieldSpec {
	return fieldSpec{
		path: path,
		get: func(r *model.TelemetryReading) *float64 {
			return *sel(r)
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			*sel(r) = &val
		},
	}
}

func temperatureField(path string, sel func(t *model.Temperature) **float64) fieldSpec {
	return fieldSpec{
		path: path,
		get: func(r *model.TelemetryReading) *float64 {
			if r.Temperature == nil {
				return nil
			}
			return *sel(r.Temperature)
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			*sel(ensureTemperature(r)) = &val
		},
		unit:    temperatureUnit,
		setUnit: setTemperatureUnit,
	}
}

func motorTemperatureField(n int) fieldSpec {
	return fieldSpec{
		path: fmt.Sprintf("temperature.motor.joint%d", n),
		get: func(r *model.TelemetryReading) *float64 {
			if r.Temperature == nil || r.Temperature.Motor == nil {
				return nil
			}
			return *r.Temperature.Motor.JointRef(n)
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			*ensureMotorTemperature(r).JointRef(n) = &val
		},
		unit:    temperatureUnit,
		setUnit: setTemperatureUnit,
	}
}

func temperatureUnit(r *model.TelemetryReading) string {
	if r.Temperature == nil {
		return ""
	}
	return r.Temperature.Unit
}

func setTemperatureUnit(r *model.TelemetryReading, u string) {
	if u != "" {
		ensureTemperature(r).Unit = u
	}
}

func voltageField(path string, sel func(v *model.Voltage) **float64) fieldSpec {
	return fieldSpec{
		path: path,
		get: func(r *model.TelemetryReading) *float64 {
			if r.Voltage == nil {
				return nil
			}
			return *sel(r.Voltage)
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			*sel(ensureVoltage(r)) = &val
		},
		unit: func(r *model.TelemetryReading) string {
			if r.Voltage == nil {
				return ""
			}
			return r.Voltage.Unit
		},
		setUnit: func(r *model.TelemetryReading, u string) {
			if u != "" {
				ensureVoltage(r).Unit = u
			}
		},
	}
}

func programProgressField() fieldSpec {
	return fieldSpec{
		path: "program.progress",
		get: func(r *model.TelemetryReading) *float64 {
			if r.ProgramState == nil {
				return nil
			}
			return r.ProgramState.Progress
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			ensureProgramState(r).Progress = &val
		},
		meta: func(r *model.TelemetryReading) map[string]string {
			if r.ProgramState == nil || r.ProgramState.State == "" {
				return nil
			}
			return map[string]string{"state": r.ProgramState.State}
		},
		setMeta: func(r *model.TelemetryReading, m map[string]string) {
			if s := m["state"]; s != "" {
				ensureProgramState(r).State = s
			}
		},
	}
}

func toolField(path string, sel func(t *model.ToolData) **float64) fieldSpec {
	return fieldSpec{
		path: path,
		get: func(r *model.TelemetryReading) *float64 {
			if r.ToolData == nil {
				return nil
			}
			return *sel(r.ToolData)
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			*sel(ensureToolData(r)) = &val
		},
	}
}

func safetyField(path string, sel func(s *model.Safety) **bool) fieldSpec {
	return fieldSpec{
		path: path,
		kind: kindBoolean,
		get: func(r *model.TelemetryReading) *float64 {
			if r.Safety == nil {
				return nil
			}
			return boolAsNumber(*sel(r.Safety))
		},
		set: func(r *model.TelemetryReading, v float64) {
			*sel(ensureSafety(r)) = numberAsBool(v)
		},
	}
}

func gpsField(path string, sel func(g *model.GPSPosition) **float64) fieldSpec {
	return fieldSpec{
		path: path,
		get: func(r *model.TelemetryReading) *float64 {
			if r.GPSPosition == nil {
				return nil
			}
			return *sel(r.GPSPosition)
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			*sel(ensureGPS(r)) = &val
		},
		meta: func(r *model.TelemetryReading) map[string]string {
			if r.GPSPosition == nil || r.GPSPosition.Fix == "" {
				return nil
			}
			return map[string]string{"fix": r.GPSPosition.Fix}
		},
		setMeta: func(r *model.TelemetryReading, m map[string]string) {
			if f := m["fix"]; f != "" {
				ensureGPS(r).Fix = f
			}
		},
	}
}

func navigationField(path string, sel func(n *model.Navigation) **float64) fieldSpec {
	return fieldSpec{
		path: path,
		get: func(r *model.TelemetryReading) *float64 {
			if r.Navigation == nil {
				return nil
			}
			return *sel(r.Navigation)
		},
		set: func(r *model.TelemetryReading, v float64) {
			val := v
			*sel(ensureNavigation(r)) = &val
		},
	}
}

func buildFieldTable() []fieldSpec {
	specs := []fieldSpec{
		positionField("position.x", func(p *model.Position) **float64 { return &p.X }),
		positionField("position.y", func(p *model.Position) **float64 { return &p.Y }),
		positionField("position.z", func(p *model.Position) **float64 { return &p.Z }),
		positionField("position.rx", func(p *model.Position) **float64 { return &p.RX }),
		positionField("position.ry", func(p *model.Position) **float64 { return &p.RY }),
		positionField("position.rz", func(p *model.Position) **float64 { return &p.RZ }),
	}
	for n := 1; n <= 8; n++ {
		specs = append(specs, jointAngleField(n))
	}
	specs = append(specs,
		velocityField("velocity.linear", func(v *model.Velocity) **float64 { return &v.Linear }),
		velocityField("velocity.angular", func(v *model.Velocity) **float64 { return &v.Angular }),
		velocityField("velocity.joint", func(v *model.Velocity) **float64 { return &v.Joint }),
		scalarField("acceleration", func(r *model.TelemetryReading) **float64 { return &r.Acceleration }),
		scalarField("force", func(r *model.TelemetryReading) **float64 { return &r.Force }),
		scalarField("torque", func(r *model.TelemetryReading) **float64 { return &r.Torque }),
		temperatureField("temperature.ambient", func(t *model.Temperature) **float64 { return &t.Ambient }),
		temperatureField("temperature.controller", func(t *model.Temperature) **float64 { return &t.Controller }),
	)
	for n := 1; n <= 8; n++ {
		specs = append(specs, motorTemperatureField(n))
	}
	specs = append(specs,
		voltageField("voltage.supply", func(v *model.Voltage) **float64 { return &v.Supply }),
		voltageField("voltage.motor", func(v *model.Voltage) **float64 { return &v.Motor }),
		voltageField("voltage.controller", func(v *model.Voltage) **float64 { return &v.Controller }),
		scalarField("current", func(r *model.TelemetryReading) **float64 { return &r.Current }),
		scalarField("power", func(r *model.TelemetryReading) **float64 { return &r.Power }),
		programProgressField(),
		toolField("tool.analogInput1", func(t *model.ToolData) **float64 { return &t.AnalogInput1 }),
		toolField("tool.analogInput2", func(t *model.ToolData) **float64 { return &t.AnalogInput2 }),
		safetyField("safety.emergencyStop", func(s *model.Safety) **bool { return &s.EmergencyStop }),
		safetyField("safety.protectiveStop", func(s *model.Safety) **bool { return &s.ProtectiveStop }),
		safetyField("safety.reducedMode", func(s *model.Safety) **bool { return &s.ReducedMode }),
		safetyField("safety.safetyZoneViolation", func(s *model.Safety) **bool { return &s.SafetyZoneViolation }),
		gpsField("gps.latitude", func(g *model.GPSPosition) **float64 { return &g.Latitude }),
		gpsField("gps.longitude", func(g *model.GPSPosition) **float64 { return &g.Longitude }),
		gpsField("gps.altitude", func(g *model.GPSPosition) **float64 { return &g.Altitude }),
		gpsField("gps.heading", func(g *model.GPSPosition) **float64 { return &g.Heading }),
		gpsField("gps.speed", func(g *model.GPSPosition) **float64 { return &g.Speed }),
		gpsField("gps.accuracy", func(g *model.GPSPosition) **float64 { return &g.Accuracy }),
		gpsField("gps.satelliteCount", func(g *model.GPSPosition) **float64 { return &g.SatelliteCount }),
		navigationField("navigation.pathDeviation", func(n *model.Navigation) **float64 { return &n.PathDeviation }),
		navigationField("navigation.estimatedTimeToTarget", func(n *model.Navigation) **float64 { return &n.EstimatedTimeToTarget }),
		navigationField("navigation.missionProgress", func(n *model.Navigation) **float64 { return &n.MissionProgress }),
		fieldSpec{
			path: "navigation.obstacleDetected",
			kind: kindBoolean,
			get: func(r *model.TelemetryReading) *float64 {
				if r.Navigation == nil {
					return nil
				}
				return boolAsNumber(r.Navigation.ObstacleDetected)
			},
			set: func(r *model.TelemetryReading, v float64) {
				ensureNavigation(r).ObstacleDetected = numberAsBool(v)
			},
		},
	)
	return specs
}

var fieldTable = buildFieldTable()

var fieldByPath = func() map[string]*fieldSpec {
	m := make(map[string]*fieldSpec, len(fieldTable))
	for i := range fieldTable {
		fs := &fieldTable[i]
		if _, dup := m[fs.path]; dup {
			panic("telemetry: duplicate metric path " + fs.path)
		}
		m[fs.path] = fs
	}
	return m
}()

// MetricType reports the value type behind a dotted metric name, answered
// from the same table the extractor uses. Custom and unknown names default
// to number.
func MetricType(name string) string {
	if fs, ok := fieldByPath[name]; ok {
		if fs.kind == kindBoolean {
			return "boolean"
		}
		return "number"
	}
	return "number"
}

// Supported reports whether a dotted metric name is part of the fixed schema
// (custom.* names are accepted but not typed).
func Supported(name string) bool {
	if _, ok := fieldByPath[name]; ok {
		return true
	}
	return strings.HasPrefix(name, CustomPrefix)
}

// RecordWidthHint bounds how many rows a single record can produce: every
// table entry plus headroom for custom fields. Callers use it to translate a
// record limit into a store row budget.
func RecordWidthHint() int {
	return len(fieldTable) + 16
}

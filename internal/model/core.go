package model

import "time"

// TelemetryReading is the nested sensor payload submitted per robot per
// timestamp. Every section is optional and numeric leaves are pointers so
// that "not measured" survives a store round trip.
type TelemetryReading struct {
	Position     *Position      `json:"position,omitempty"`
	JointAngles  *JointAngles   `json:"jointAngles,omitempty"`
	Velocity     *Velocity      `json:"velocity,omitempty"`
	Acceleration *float64       `json:"acceleration,omitempty"`
	Force        *float64       `json:"force,omitempty"`
	Torque       *float64       `json:"torque,omitempty"`
	Temperature  *Temperature   `json:"temperature,omitempty"`
	Voltage      *Voltage       `json:"voltage,omitempty"`
	Current      *float64       `json:"current,omitempty"`
	Power        *float64       `json:"power,omitempty"`
	ProgramState *ProgramState  `json:"programState,omitempty"`
	ToolData     *ToolData      `json:"toolData,omitempty"`
	Safety       *Safety        `json:"safety,omitempty"`
	GPSPosition  *GPSPosition   `json:"gpsPosition,omitempty"`
	Navigation   *Navigation    `json:"navigation,omitempty"`
	Custom       map[string]any `json:"custom,omitempty"`
}

type Position struct {
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Z     *float64 `json:"z,omitempty"`
	RX    *float64 `json:"rx,omitempty"`
	RY    *float64 `json:"ry,omitempty"`
	RZ    *float64 `json:"rz,omitempty"`
	Frame string   `json:"frame,omitempty"`
}

type JointAngles struct {
	Joint1 *float64 `json:"joint1,omitempty"`
	Joint2 *float64 `json:"joint2,omitempty"`
	Joint3 *float64 `json:"joint3,omitempty"`
	Joint4 *float64 `json:"joint4,omitempty"`
	Joint5 *float64 `json:"joint5,omitempty"`
	Joint6 *float64 `json:"joint6,omitempty"`
	Joint7 *float64 `json:"joint7,omitempty"`
	Joint8 *float64 `json:"joint8,omitempty"`
	Unit   string   `json:"unit,omitempty"`
}

// JointRef exposes the numbered joint fields for table-driven access.
// Returns nil when n is outside 1..8.
func (j *JointAngles) JointRef(n int) **float64 {
	switch n {
	case 1:
		return &j.Joint1
	case 2:
		return &j.Joint2
	case 3:
		return &j.Joint3
	case 4:
		return &j.Joint4
	case 5:
		return &j.Joint5
	case 6:
		return &j.Joint6
	case 7:
		return &j.Joint7
	case 8:
		return &j.Joint8
	}
	return nil
}

type Velocity struct {
	Linear  *float64 `json:"linear,omitempty"`
	Angular *float64 `json:"angular,omitempty"`
	Joint   *float64 `json:"joint,omitempty"`
}

type Temperature struct {
	Ambient    *float64          `json:"ambient,omitempty"`
	Controller *float64          `json:"controller,omitempty"`
	Motor      *MotorTemperature `json:"motor,omitempty"`
	Unit       string            `json:"unit,omitempty"`
}

type MotorTemperature struct {
	Joint1 *float64 `json:"joint1,omitempty"`
	Joint2 *float64 `json:"joint2,omitempty"`
	Joint3 *float64 `json:"joint3,omitempty"`
	Joint4 *float64 `json:"joint4,omitempty"`
	Joint5 *float64 `json:"joint5,omitempty"`
	Joint6 *float64 `json:"joint6,omitempty"`
	Joint7 *float64 `json:"joint7,omitempty"`
	Joint8 *float64 `json:"joint8,omitempty"`
}

// JointRef exposes the numbered joint fields for table-driven access.
func (m *MotorTemperature) JointRef(n int) **float64 {
	switch n {
	case 1:
		return &m.Joint1
	case 2:
		return &m.Joint2
	case 3:
		return &m.Joint3
	case 4:
		return &m.Joint4
	case 5:
		return &m.Joint5
	case 6:
		return &m.Joint6
	case 7:
		return &m.Joint7
	case 8:
		return &m.Joint8
	}
	return nil
}

type Voltage struct {
	Supply     *float64 `json:"supply,omitempty"`
	Motor      *float64 `json:"motor,omitempty"`
	Controller *float64 `json:"controller,omitempty"`
	Unit       string   `json:"unit,omitempty"`
}

type ProgramState struct {
	Progress *float64 `json:"progress,omitempty"`
	State    string   `json:"state,omitempty"`
}

type ToolData struct {
	AnalogInput1 *float64 `json:"analogInput1,omitempty"`
	AnalogInput2 *float64 `json:"analogInput2,omitempty"`
}

type Safety struct {
	EmergencyStop       *bool `json:"emergencyStop,omitempty"`
	ProtectiveStop      *bool `json:"protectiveStop,omitempty"`
	ReducedMode         *bool `json:"reducedMode,omitempty"`
	SafetyZoneViolation *bool `json:"safetyZoneViolation,omitempty"`
}

type GPSPosition struct {
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Altitude       *float64 `json:"altitude,omitempty"`
	Heading        *float64 `json:"heading,omitempty"`
	Speed          *float64 `json:"speed,omitempty"`
	Accuracy       *float64 `json:"accuracy,omitempty"`
	SatelliteCount *float64 `json:"satelliteCount,omitempty"`
	Fix            string   `json:"fix,omitempty"`
}

type Navigation struct {
	PathDeviation         *float64 `json:"pathDeviation,omitempty"`
	EstimatedTimeToTarget *float64 `json:"estimatedTimeToTarget,omitempty"`
	MissionProgress       *float64 `json:"missionProgress,omitempty"`
	ObstacleDetected      *bool    `json:"obstacleDetected,omitempty"`
}

// MetricEntry is one flat, time-stamped scalar observation. Entries are
// created only during ingestion and are append-only in the store.
type MetricEntry struct {
	Time           time.Time         `json:"time"`
	RobotID        string            `json:"robotId"`
	OrganizationID string            `json:"organizationId"`
	Name           string            `json:"metricName"`
	Value          float64           `json:"value"`
	Unit           string            `json:"unit,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// RecordMetadata carries optional provenance for a telemetry record.
type RecordMetadata struct {
	Source       string  `json:"source,omitempty"`
	Quality      string  `json:"quality,omitempty"`
	SamplingRate float64 `json:"samplingRate,omitempty"`
}

// RobotTelemetryRecord is ephemeral: synthesized at ingestion (echoing the
// input) or reconstructed from stored rows at query time.
type RobotTelemetryRecord struct {
	ID        string           `json:"id"`
	RobotID   string           `json:"robotId"`
	Timestamp time.Time        `json:"timestamp"`
	Data      TelemetryReading `json:"data"`
	Metadata  *RecordMetadata  `json:"metadata,omitempty"`
}

// AggregationResult is one row per (bucket, robot). Timestamp is the bucket
// start.
type AggregationResult struct {
	RobotID         string    `json:"robotId,omitempty"`
	Metric          string    `json:"metric"`
	TimeWindow      string    `json:"timeWindow"`
	AggregationType string    `json:"aggregationType"`
	Value           float64   `json:"value"`
	Timestamp       time.Time `json:"timestamp"`
}

// MetricInfo describes one distinct metric observed for a robot.
type MetricInfo struct {
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
	Type string `json:"type"`
}

func ToMillis(t time.Time) int64 { return t.UTC().UnixNano() / 1e6 }

package protocol

// Kind names one of the three wire message shapes.
type Kind string

const (
	KindHandshake   Kind = "handshake"
	KindControl     Kind = "control"
	KindObservation Kind = "observation"
)

// HandshakeOptions is the controller's first message of a session.
type HandshakeOptions struct {
	SampleFrequency int     `json:"sampleFrequency"`
	TimeScale       int     `json:"timeScale"`
	Timestep        float64 `json:"timestep"`
	FixedDeltaTime  float64 `json:"fixedDeltaTime"`
}

func (h HandshakeOptions) Validate() error {
	if h.SampleFrequency <= 0 {
		return decodeErr(KindHandshake, "sampleFrequency", "must be positive, got %d", h.SampleFrequency)
	}
	if h.TimeScale <= 0 {
		return decodeErr(KindHandshake, "timeScale", "must be positive, got %d", h.TimeScale)
	}
	if h.FixedDeltaTime <= 0 && h.Timestep <= 0 {
		return decodeErr(KindHandshake, "timestep", "no positive timestep or fixedDeltaTime")
	}
	return nil
}

// ControlMessage is the controller's per-step command.
type ControlMessage struct {
	Reset                   bool    `json:"reset"`
	IsFinished              bool    `json:"isFinished"`
	QuitApplication         bool    `json:"quitApplication"`
	HeadsetPosition         Vec3    `json:"headsetPosition"`
	HeadsetRotation         Quat    `json:"headsetRotation"`
	LeftControllerPosition  Vec3    `json:"leftControllerPosition"`
	LeftControllerRotation  Quat    `json:"leftControllerRotation"`
	RightControllerPosition Vec3    `json:"rightControllerPosition"`
	RightControllerRotation Quat    `json:"rightControllerRotation"`
	CurrentTimestep         float64 `json:"currentTimestep"`
	NextTimestep            float64 `json:"nextTimestep"`
}

// Observation is the simulator's reply to every request.
// Image, Audio and LogDict encode as null when nil.
type Observation struct {
	IsFinished  bool      `json:"isFinished"`
	Reward      float64   `json:"reward"`
	Image       ByteArray `json:"image"`
	Audio       []float32 `json:"audio"`
	TimeFeature float64   `json:"timeFeature"`
	LogDict     LogDict   `json:"logDict"`
}

// HandshakeAck is the empty observation that acknowledges a handshake.
func HandshakeAck() Observation {
	return Observation{TimeFeature: -1}
}

type fieldSpec struct {
	name     string
	nullable bool
}

var handshakeFields = []fieldSpec{
	{name: "sampleFrequency"},
	{name: "timeScale"},
	{name: "timestep"},
	{name: "fixedDeltaTime"},
}

var controlFields = []fieldSpec{
	{name: "reset"},
	{name: "isFinished"},
	{name: "quitApplication"},
	{name: "headsetPosition"},
	{name: "headsetRotation"},
	{name: "leftControllerPosition"},
	{name: "leftControllerRotation"},
	{name: "rightControllerPosition"},
	{name: "rightControllerRotation"},
	{name: "currentTimestep"},
	{name: "nextTimestep"},
}

var observationFields = []fieldSpec{
	{name: "isFinished"},
	{name: "reward"},
	{name: "image", nullable: true},
	{name: "audio", nullable: true},
	{name: "timeFeature"},
	{name: "logDict", nullable: true},
}

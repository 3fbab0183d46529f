package arangodb

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
	DirectionAny      Direction = "any"
)

// CourseNode is a catalog course mirrored into the requirement graph.
// Code must already be normalized (upper case, single internal space).
type CourseNode struct {
	Code       string
	Title      string
	Credits    float64
	Level      int
	Discipline string
}

// RequirementEdge links a course to one of the courses it requires.
// Kind selects the edge collection: "prerequisite", "corequisite" or
// "recommended".
type RequirementEdge struct {
	Course      string
	Requirement string
	Kind        string
	MinGrade    string
}

type GraphCourse struct {
	Code       string
	Title      string
	Credits    float64
	Level      int
	Discipline string
}

type GraphLink struct {
	Course      string
	Requirement string
	Kind        string
}

type TraversalOptions struct {
	Kinds     []string
	Direction Direction
	MaxDepth  int
}

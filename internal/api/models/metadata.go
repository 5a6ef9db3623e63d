package models

// Enums represents the enum values used by the API.
type Enums struct {
	CrowdLevels  []string `json:"crowdLevels"`
	Categories   []string `json:"categories"`
	Priorities   []string `json:"priorities"`
	VisitTimes   []string `json:"visitTimes"`
	Difficulties []string `json:"difficulties"`
}

// Areas lists the neighbourhood areas known to the directory.
type Areas struct {
	Items []string `json:"items"`
}

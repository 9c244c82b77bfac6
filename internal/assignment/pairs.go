package assignment

import "github.com/google/uuid"

// Pair is one (participant, task) combination within a hackathon.
type Pair struct {
	ParticipantID uuid.UUID
	TaskID        uuid.UUID
}

// PairSet tracks pairs already present in the ledger plus those picked
// earlier in the running batch.
type PairSet map[Pair]struct{}

func NewPairSet(pairs ...Pair) PairSet {
	s := make(PairSet, len(pairs))
	for _, p := range pairs {
		s.Add(p.ParticipantID, p.TaskID)
	}
	return s
}

func (s PairSet) Has(participantID, taskID uuid.UUID) bool {
	_, ok := s[Pair{ParticipantID: participantID, TaskID: taskID}]
	return ok
}

func (s PairSet) Add(participantID, taskID uuid.UUID) {
	s[Pair{ParticipantID: participantID, TaskID: taskID}] = struct{}{}
}

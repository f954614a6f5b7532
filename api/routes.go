package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// SecretEndpoint is the endpoint for setting the voting box secret
	SecretEndpoint = "/secret"
	// VotersEndpoint is the endpoint for registering a voter
	VotersEndpoint = "/voters"
	// VoterCountEndpoint is the endpoint for the registered voter count
	VoterCountEndpoint = "/voters/count"
	// VoterEndpoint is the endpoint to get a voter record
	VoterURLParam = "address"
	VoterEndpoint = "/voters/{" + VoterURLParam + "}"
	// VotesEndpoint is the endpoint for casting a vote
	VotesEndpoint = "/votes"
	// VoteRecastEndpoint is the endpoint for recasting an already cast vote
	VoteRecastEndpoint = "/votes/recast"
	// VoteEndpoint is the endpoint to get a stored vote
	VoteEndpoint = "/votes/{" + VoterURLParam + "}"
	// ValidationEndpoint is the endpoint for running the validation pass
	ValidationEndpoint = "/validation"
	// RevoteEndpoint is the endpoint for starting the revote recovery
	RevoteEndpoint = "/revote"
	// PhaseEndpoint is the endpoint for the current election phase
	PhaseEndpoint = "/phase"
	// EventsEndpoint is the endpoint for the audit event journal
	EventsEndpoint = "/events"
	// RootEndpoint is the endpoint for the audit tree root
	RootEndpoint = "/root"
)

package game

import "errors"

// Configuration errors fail construction. ErrPoolExhausted is transient.
var (
	ErrMissingFactory      = errors.New("enemy pool has no factory")
	ErrNoSpawnPoints       = errors.New("no spawn points configured")
	ErrMissingCollaborator = errors.New("required collaborator is nil")
	ErrPoolExhausted       = errors.New("enemy pool could not grow")
	ErrUnknownEnemyType    = errors.New("unknown enemy type")
	ErrNoLevels            = errors.New("no levels configured")
	ErrInvalidMatchConfig  = errors.New("invalid match configuration")
)

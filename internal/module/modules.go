package module

import "github.com/Aman-CERP/microgen/internal/patch"

// Module names.
const (
	Init       = "init"
	ES         = "es"
	Session    = "session"
	Saga       = "saga"
	Task       = "task"
	Projection = "projection"
)

// ConfigArtifact is the generated configuration file every fragment targets.
const ConfigArtifact = patch.DefaultPath

var defaultRegistry = NewRegistry(
	initModule(),
	esModule(),
	sessionModule(),
	sagaModule(),
	taskModule(),
	projectionModule(),
)

// Default returns the built-in registry.
func Default() *Registry {
	return defaultRegistry
}

func initModule() *Module {
	return &Module{
		Name:    Init,
		Summary: "project skeleton: entry point, config, logger, health handler, router",
		Dirs: []string{
			"cmd/api",
			"data",
			"data/snapshots",
			"internal/entity",
			"internal/usecase",
			"adapter/handler",
			"adapter/repo",
			"pkg/config",
			"pkg/logger",
			"pkg/db",
			"pkg/http",
		},
		Files: []FileSpec{
			{"init/go.mod.tmpl", "go.mod"},
			{"init/main.go.tmpl", "cmd/api/main.go"},
			{"init/config.go.tmpl", ConfigArtifact},
			{"init/logger.go.tmpl", "pkg/logger/logger.go"},
			{"init/health_handler.go.tmpl", "adapter/handler/health_handler.go"},
			{"init/router.go.tmpl", "pkg/http/router.go"},
			{"init/Makefile.tmpl", "Makefile"},
			{"init/Dockerfile.tmpl", "Dockerfile"},
			{"init/env.tmpl", ".env"},
			{"init/gitignore.tmpl", ".gitignore"},
		},
		Instructions: []string{
			"cd into the project and run: go mod tidy",
			"Start the service: make run",
			"Add features with: microgen es | session | saga | task | projection",
		},
	}
}

func esModule() *Module {
	return &Module{
		Name:     ES,
		Summary:  "event sourcing on NATS JetStream: event store, event bus, snapshots",
		Requires: []string{Init},
		Dirs:     []string{"internal/usecase/event", "pkg/event"},
		Files: []FileSpec{
			{"es/event.go.tmpl", "internal/entity/event.go"},
			{"es/bus.go.tmpl", "internal/usecase/event/bus.go"},
			{"es/snapshot.go.tmpl", "internal/usecase/event/snapshot.go"},
			{"es/store.go.tmpl", "internal/usecase/event/store.go"},
			{"es/jetstream_store.go.tmpl", "pkg/event/jetstream_store.go"},
			{"es/jetstream_bus.go.tmpl", "pkg/event/jetstream_bus.go"},
			{"es/snapshot_store.go.tmpl", "pkg/event/snapshot_store.go"},
			{"es/example_usage.go.tmpl", "pkg/event/example_usage.go"},
		},
		Fragment: &patch.Fragment{
			Module: ES,
			Struct: patch.Part{
				Sentinel: "NATSURL",
				Anchors:  []patch.Anchor{patch.End()},
				Lines: []string{
					"",
					"// Event sourcing",
					"NATSURL     string",
					"StreamName  string",
					"ClusterName string",
				},
			},
			Defaults: patch.Part{
				Sentinel: "NATSURL",
				Anchors:  []patch.Anchor{patch.End()},
				Lines: []string{
					`NATSURL:     getEnv("NATS_URL", "nats://localhost:4222"),`,
					`StreamName:  getEnv("NATS_STREAM_NAME", "events"),`,
					`ClusterName: getEnv("NATS_CLUSTER_NAME", "micro-services"),`,
				},
			},
		},
		Instructions: []string{
			"Start NATS with JetStream: docker run -p 4222:4222 nats:latest -js",
			"Add the client: go get github.com/nats-io/nats.go",
			"See pkg/event/example_usage.go for wiring the store and the bus",
		},
	}
}

func sessionModule() *Module {
	return &Module{
		Name:     Session,
		Summary:  "session management with memory, badger and redis stores",
		Requires: []string{Init},
		Dirs:     []string{"internal/usecase/session", "pkg/session"},
		Files: []FileSpec{
			{"session/session.go.tmpl", "internal/entity/session.go"},
			{"session/service.go.tmpl", "internal/usecase/session/service.go"},
			{"session/redis_store.go.tmpl", "pkg/session/redis_store.go"},
			{"session/memory_store.go.tmpl", "pkg/session/memory_store.go"},
			{"session/badger_store.go.tmpl", "pkg/session/badger_store.go"},
			{"session/session_manager.go.tmpl", "pkg/session/session_manager.go"},
		},
		Fragment: &patch.Fragment{
			Module: Session,
			Struct: patch.Part{
				Sentinel: "SessionLevel",
				Anchors:  []patch.Anchor{patch.End()},
				Lines: []string{
					"",
					"// Sessions",
					"SessionLevel  string // low (memory), normal (badger), high (redis)",
					"RedisAddr     string",
					"RedisPassword string",
					"RedisDB       int",
				},
			},
			Defaults: patch.Part{
				Sentinel: "SessionLevel",
				Anchors:  []patch.Anchor{patch.End()},
				Lines: []string{
					`SessionLevel:  getEnv("SESSION_LEVEL", "low"),`,
					`RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),`,
					`RedisPassword: getEnv("REDIS_PASSWORD", ""),`,
					`RedisDB:       getEnvAsInt("REDIS_DB", 0),`,
				},
			},
		},
		Instructions: []string{
			"Pick a store with SESSION_LEVEL=low|normal|high",
			"For high, start Redis: docker run -p 6379:6379 redis:7",
			"Add the clients: go get github.com/redis/go-redis/v9 github.com/dgraph-io/badger/v4",
		},
	}
}

func sagaModule() *Module {
	// Historical layouts lack SessionLevel but keep the Redis fields.
	anchors := []patch.Anchor{patch.After("SessionLevel"), patch.After("RedisDB")}
	return &Module{
		Name:     Saga,
		Summary:  "saga orchestration with compensating steps",
		Requires: []string{Session},
		Dirs:     []string{"internal/usecase/saga", "pkg/saga"},
		Files: []FileSpec{
			{"saga/saga.go.tmpl", "internal/entity/saga.go"},
			{"saga/service.go.tmpl", "internal/usecase/saga/service.go"},
			{"saga/saga_store.go.tmpl", "pkg/saga/saga_store.go"},
			{"saga/saga_manager.go.tmpl", "pkg/saga/saga_manager.go"},
			{"saga/example_usage.go.tmpl", "pkg/saga/example_usage.go"},
		},
		Fragment: &patch.Fragment{
			Module: Saga,
			Struct: patch.Part{
				Sentinel: "SagaLevel",
				Anchors:  anchors,
				Lines:    []string{"SagaLevel     string // low (memory), normal (badger), high (redis)"},
			},
			Defaults: patch.Part{
				Sentinel: "SagaLevel",
				Anchors:  anchors,
				Lines:    []string{`SagaLevel:     getEnv("SAGA_LEVEL", "low"),`},
			},
		},
		Instructions: []string{
			"Pick a store with SAGA_LEVEL=low|normal|high",
			"See pkg/saga/example_usage.go for defining steps and compensations",
		},
	}
}

func taskModule() *Module {
	anchors := []patch.Anchor{patch.After("SagaLevel"), patch.After("SessionLevel"), patch.After("RedisDB")}
	return &Module{
		Name:     Task,
		Summary:  "long-running and scheduled task management",
		Requires: []string{Saga},
		Dirs:     []string{"internal/usecase/task", "pkg/task"},
		Files: []FileSpec{
			{"task/task.go.tmpl", "internal/entity/task.go"},
			{"task/service.go.tmpl", "internal/usecase/task/service.go"},
			{"task/task_store.go.tmpl", "pkg/task/task_store.go"},
			{"task/redis_store.go.tmpl", "pkg/task/redis_store.go"},
			{"task/badger_store.go.tmpl", "pkg/task/badger_store.go"},
			{"task/task_manager.go.tmpl", "pkg/task/task_manager.go"},
			{"task/example_usage.go.tmpl", "pkg/task/example_usage.go"},
		},
		Fragment: &patch.Fragment{
			Module: Task,
			Struct: patch.Part{
				Sentinel: "TaskLevel",
				Anchors:  anchors,
				Lines:    []string{"TaskLevel     string // low (memory), normal (badger), high (redis)"},
			},
			Defaults: patch.Part{
				Sentinel: "TaskLevel",
				Anchors:  anchors,
				Lines:    []string{`TaskLevel:     getEnv("TASK_LEVEL", "low"),`},
			},
		},
		Instructions: []string{
			"Pick a store with TASK_LEVEL=low|normal|high",
			"See pkg/task/example_usage.go for scheduling and progress tracking",
		},
	}
}

func projectionModule() *Module {
	return &Module{
		Name:     Projection,
		Summary:  "read-model projections fed by the event stream",
		Requires: []string{ES},
		Dirs:     []string{"internal/usecase/projection", "pkg/projection"},
		Files: []FileSpec{
			{"projection/projection.go.tmpl", "internal/entity/projection.go"},
			{"projection/store.go.tmpl", "pkg/projection/store.go"},
			{"projection/example_usage.go.tmpl", "pkg/projection/example_usage.go"},
		},
		PerProjection: []FileSpec{
			{"projection/read_model.go.tmpl", "internal/entity/{{ .aggregate_snake }}_read_model.go"},
			{"projection/repository.go.tmpl", "pkg/projection/{{ .aggregate_snake }}_repository.go"},
			{"projection/service.go.tmpl", "internal/usecase/projection/{{ .aggregate_snake }}_service.go"},
		},
		Fragment: &patch.Fragment{
			Module: Projection,
			Struct: patch.Part{
				Sentinel: "ProjectionLevel",
				Anchors:  []patch.Anchor{patch.After("ClusterName"), patch.After("NATSURL")},
				Lines:    []string{"ProjectionLevel string // low (memory), normal (badger)"},
			},
			Defaults: patch.Part{
				Sentinel: "ProjectionLevel",
				Anchors:  []patch.Anchor{patch.After("ClusterName"), patch.After("NATSURL")},
				Lines:    []string{`ProjectionLevel: getEnv("PROJECTION_LEVEL", "low"),`},
			},
		},
		Instructions: []string{
			"Describe aggregates and projections in microgen.yaml, then run: microgen projection --config microgen.yaml",
			"See pkg/projection/example_usage.go for subscribing a projection to the event bus",
		},
	}
}

// Package app composes the catalog services into a running application.
//
// The app package sits above the domain and storage layers and wires them
// together. It is not a business logic layer; business rules belong in
// internal/services/.
//
//	internal/app/
//	├── application.go      # Application struct, service wiring, lifecycle
//	└── system/             # Service manager (ordered start/stop)
//
//	internal/
//	├── catalog/            # Domain models (authors, books, copies, users)
//	├── storage/            # Store interfaces, memory and SQL implementations
//	├── services/           # Business logic (catalog, loans, accounts)
//	├── web/                # HTML handlers, forms, templates
//	├── httpserver/         # Lifecycle-managed HTTP listener
//	├── middleware/         # Request logging and rate limiting
//	├── metrics/            # Prometheus collectors
//	└── platform/           # Database drivers and migrations
//
// cmd/catalogd builds the Application, attaches the web handler and the HTTP
// listener, and waits for a shutdown signal. Services that run background
// work (the session janitor, the overdue monitor, the listener itself)
// register with the system manager so startup order and shutdown order stay
// deterministic.
package app

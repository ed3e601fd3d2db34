// Package docs provides the Swagger documentation for the API.
package docs

// @title           Multi-Model Dispatch Gateway
// @version         1.0
// @description     Dispatches a prompt (text, image, or audio) to a selection of AI models through an orchestrator webhook and aggregates the per-model results.

// @contact.name   API Support
// @contact.url    https://github.com/aashari/go-multimodel-dispatch

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8082
// @BasePath  /

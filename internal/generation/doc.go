// Package generation defines the boundary between the job orchestrator
// and external LLM services. A Generator turns a batch request built
// from document chunks into candidate cards or questions; candidates
// are raw model output and only become domain objects after passing the
// validation gate.
package generation

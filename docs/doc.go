// Package docs provides generated OpenAPI documentation.
//
// Papercutter API
//
//	@title			Papercutter API
//	@version		1.0
//	@description	Exam paper parsing API: upload scanned pages, get structured question records.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/daixun-ai/papercutter-vl
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8000
//	@BasePath	/
//
//	@schemes	http https
package docs

// @title           PDF Q&A API
// @version         1.0
// @description     Upload a PDF, then ask questions answered from its content with page citations.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email   ank.github@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:5000
// @BasePath  /
// @schemes   http https
package utils

//run ollama
//ollama serve && ollama pull llama3 && ollama pull nomic-embed-text

//run redis (optional answer cache)
//docker run -p 6379:6379 -d redis

//run qdrant (optional, INDEX_BACKEND=qdrant)
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//swagger init
//swag init -g internal/adapter/utils/docs_info.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs

package config

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(issuerURL, clientID, clientSecret, noAuthUID string) *Auth {
	return &Auth{
		issuerURL:    issuerURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		noAuthUID:    noAuthUID,
		noAuthEmail:  "dev@localhost",
		noAuthName:   "Developer",
	}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(apiKey, modelsFile string, allModels bool) *LLM {
	return &LLM{
		apiKey:     apiKey,
		baseURL:    "https://openrouter.ai/api/v1",
		siteURL:    "http://localhost:3000",
		modelsFile: modelsFile,
		allModels:  allModels,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, databaseURL, projectID string) *Repository {
	return &Repository{
		backend:     backend,
		databaseURL: databaseURL,
		projectID:   projectID,
	}
}

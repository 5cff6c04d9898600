package constants

import "os"

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetUploadDir is where uploaded source files are saved.
func GetUploadDir() string {
	return getenv("UPLOAD_PATH", "./uploads")
}

// GetSeparatedDir holds one directory of stems per job.
func GetSeparatedDir() string {
	return getenv("SEPARATED_PATH", "./separated/htdemucs_6s")
}

func GetStaticDir() string {
	return getenv("STATIC_PATH", "./static")
}

func GetSQLitePath() string {
	return getenv("SQLITE_PATH", "./data/stemviz.db")
}

const DefaultPort = 5000

// Upload size limit for /convert
const MaxUploadSize = 256 << 20

const DynamoTable = "stemviz-jobs"

// Default separation command. {input} and {out} are replaced per job.
var DefaultSeparatorArgs = []string{"sep.py", "--input", "{input}", "--output", "{out}"}

const DefaultSeparatorBin = "python"

const DefaultContainerWidth = 800
